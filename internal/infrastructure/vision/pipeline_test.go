package vision

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"leaf-health-bot/internal/domain/entity"
)

func maskFrom(rows ...string) *entity.Mask {
	m := entity.NewMask(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, c := range row {
			m.Set(x, y, c == '#')
		}
	}
	return m
}

func TestRGBToHSV(t *testing.T) {
	cases := []struct {
		r, g, b uint8
		h, s, v uint8
	}{
		{255, 255, 0, 30, 255, 255},
		{0, 255, 0, 60, 255, 255},
		{255, 0, 0, 0, 255, 255},
		{0, 0, 255, 120, 255, 255},
		{150, 75, 0, 15, 255, 150},
		{128, 128, 128, 0, 0, 128},
		{0, 0, 0, 0, 0, 0},
	}
	for _, c := range cases {
		h, s, v := rgbToHSV(c.r, c.g, c.b)
		require.Equal(t, [3]uint8{c.h, c.s, c.v}, [3]uint8{h, s, v}, "rgb(%d,%d,%d)", c.r, c.g, c.b)
	}
}

func TestToGray(t *testing.T) {
	g := toGray(solid(2, 2, midGreen))
	require.Equal(t, uint8(107), g.at(1, 1))
	require.Equal(t, uint8(0), toGray(solid(1, 1, black)).at(0, 0))
}

func TestCloseMask_FillsGapsAndKeepsBorder(t *testing.T) {
	m := maskFrom(
		"##.##.....",
		"##.##.....",
		"##.##.....",
	)
	closed := closeMask(m, closeKernelSize)
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			require.True(t, closed.At(x, y), "(%d,%d)", x, y)
		}
		for x := 5; x < 10; x++ {
			require.False(t, closed.At(x, y), "(%d,%d)", x, y)
		}
	}
}

func TestCloseMask_Full(t *testing.T) {
	m := entity.NewMask(6, 6)
	for i := range m.Pix {
		m.Pix[i] = true
	}
	require.Equal(t, 36, closeMask(m, closeKernelSize).Count())
}

func TestFindExternalContours_Block(t *testing.T) {
	regions := findExternalContours(maskFrom(
		"......",
		".##...",
		".##...",
		"......",
	))
	require.Len(t, regions, 1)
	require.Equal(t, 1.0, regions[0].Area)
	require.Len(t, regions[0].Points, 4)
}

func TestFindExternalContours_Rectangle(t *testing.T) {
	m := entity.NewMask(10, 8)
	for y := 2; y < 7; y++ {
		for x := 1; x < 9; x++ {
			m.Set(x, y, true)
		}
	}
	regions := findExternalContours(m)
	require.Len(t, regions, 1)
	require.Equal(t, 28.0, regions[0].Area) // (8-1)*(5-1)
	require.ElementsMatch(t, []image.Point{{1, 2}, {8, 2}, {8, 6}, {1, 6}}, regions[0].Points)
}

func TestFindExternalContours_IgnoresNested(t *testing.T) {
	regions := findExternalContours(maskFrom(
		"#######",
		"#.....#",
		"#.###.#",
		"#.#.#.#",
		"#.###.#",
		"#.....#",
		"#######",
	))
	require.Len(t, regions, 1)
	require.Equal(t, 36.0, regions[0].Area)
}

func TestFindExternalContours_SeparateAndDegenerate(t *testing.T) {
	regions := findExternalContours(maskFrom(
		"#.....###.",
		"..........",
		"..##......",
		"..##......",
	))
	require.Len(t, regions, 3)
	require.Equal(t, 0.0, regions[0].Area) // одиночный пиксель
	require.Equal(t, 0.0, regions[1].Area) // отрезок
	require.Equal(t, 1.0, regions[2].Area)

	require.Nil(t, findExternalContours(entity.NewMask(0, 5)))
}

func TestFindExternalContours_Diagonal(t *testing.T) {
	regions := findExternalContours(maskFrom(
		"#...",
		".#..",
		"..#.",
	))
	require.Len(t, regions, 1)
	require.Equal(t, 0.0, regions[0].Area)
}

func TestMedianBlur_RemovesSpeck(t *testing.T) {
	p := newPlane(7, 7)
	for i := range p.pix {
		p.pix[i] = 100
	}
	p.pix[3*7+3] = 0
	out := medianBlur(p, medianKernelSize)
	require.Equal(t, uint8(100), out.at(3, 3))
}

func TestAreaPercentage(t *testing.T) {
	require.Equal(t, 0.0, areaPercentage(10, 0, 5))
	require.Equal(t, 25.0, areaPercentage(25, 10, 10))
	require.Equal(t, 100.0, areaPercentage(200, 10, 10))
}

func TestReflect101(t *testing.T) {
	require.Equal(t, 1, reflect101(-1, 5))
	require.Equal(t, 3, reflect101(5, 5))
	require.Equal(t, 0, reflect101(-3, 1))
}

// ringEdges: граничные точки идеальной окружности с радиальным градиентом.
func ringEdges(cx, cy, r int) []edgePixel {
	seen := map[image.Point]bool{}
	var out []edgePixel
	for deg := 0; deg < 360; deg++ {
		a := float64(deg) * math.Pi / 180
		x := cx + int(math.Round(float64(r)*math.Cos(a)))
		y := cy + int(math.Round(float64(r)*math.Sin(a)))
		pt := image.Pt(x, y)
		if seen[pt] {
			continue
		}
		seen[pt] = true
		out = append(out, edgePixel{x: x, y: y, gx: (x - cx) * 10, gy: (y - cy) * 10})
	}
	return out
}

// squareEdges: контур квадрата со стороной 2*half, градиент перпендикулярен стороне.
func squareEdges(cx, cy, half int) []edgePixel {
	var out []edgePixel
	for t := -half; t <= half; t++ {
		out = append(out,
			edgePixel{x: cx - half, y: cy + t, gx: -40},
			edgePixel{x: cx + half, y: cy + t, gx: 40},
		)
		if t != -half && t != half {
			out = append(out,
				edgePixel{x: cx + t, y: cy - half, gy: -40},
				edgePixel{x: cx + t, y: cy + half, gy: 40},
			)
		}
	}
	return out
}

func TestVerifyCircle(t *testing.T) {
	p := defaultHoughParams()

	for _, r := range []int{6, 10, 20} {
		c, ok := verifyCircle(ringEdges(50, 50, r), 50, 50, p)
		require.True(t, ok, "radius %d", r)
		require.InDelta(t, r, c.Radius, 1)
		require.InDelta(t, 50, c.X, 1)
		require.InDelta(t, 50, c.Y, 1)
	}

	for _, half := range []int{10, 20} {
		_, ok := verifyCircle(squareEdges(50, 50, half), 50, 50, p)
		require.False(t, ok, "square half-side %d", half)
	}

	_, ok := verifyCircle(nil, 50, 50, p)
	require.False(t, ok)
}
