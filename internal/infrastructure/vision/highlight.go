package vision

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"leaf-health-bot/internal/domain/entity"
)

var (
	contourColor = color.RGBA{R: 255, A: 255}
	circleColor  = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	captionColor = color.RGBA{B: 255, A: 255}
)

// Highlight рисует контуры поражений, найденные пятна и подпись со степенью, возвращает JPEG.
func (d *Detector) Highlight(img image.Image, result *entity.DiagnosisResult) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("empty image")
	}
	if result == nil {
		return nil, errors.New("no diagnosis to highlight")
	}

	b := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Src)

	for _, r := range result.Regions {
		drawPolygon(canvas, r.Points, contourColor)
	}
	if ev, ok := result.Evidence[entity.SymptomFungalSpots]; ok {
		for _, c := range ev.Circles {
			drawCircle(canvas, c, circleColor)
		}
	}

	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(captionColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 30),
	}
	drawer.DrawString("Severity: " + string(result.Severity))

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// drawPolygon соединяет вершины замкнутой ломаной линией толщиной 2 пикселя.
func drawPolygon(dst *image.RGBA, pts []image.Point, c color.RGBA) {
	n := len(pts)
	if n == 1 {
		dst.SetRGBA(pts[0].X, pts[0].Y, c)
		return
	}
	for i := range pts {
		drawLine(dst, pts[i], pts[(i+1)%n], c)
	}
}

// drawLine: алгоритм Брезенхэма с утолщением вправо-вниз.
func drawLine(dst *image.RGBA, a, b image.Point, c color.RGBA) {
	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}
	e := dx + dy
	x, y := a.X, a.Y
	for {
		dst.SetRGBA(x, y, c)
		dst.SetRGBA(x+1, y, c)
		dst.SetRGBA(x, y+1, c)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

// drawCircle рисует окружность средней точкой.
func drawCircle(dst *image.RGBA, circle entity.Circle, c color.RGBA) {
	if !circleBounds(circle).Overlaps(dst.Bounds()) {
		return
	}
	x, y := circle.Radius, 0
	e := 1 - x
	for x >= y {
		for _, p := range [8]image.Point{
			{x, y}, {y, x}, {-y, x}, {-x, y}, {-x, -y}, {-y, -x}, {y, -x}, {x, -y},
		} {
			dst.SetRGBA(circle.X+p.X, circle.Y+p.Y, c)
		}
		y++
		if e < 0 {
			e += 2*y + 1
		} else {
			x--
			e += 2*(y-x) + 1
		}
	}
}
