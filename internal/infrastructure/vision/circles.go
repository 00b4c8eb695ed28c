package vision

import (
	"image"
	"math"
	"sort"

	"leaf-health-bot/internal/domain/entity"
)

// houghParams: параметры градиентного метода Хафа (шаг аккумулятора всегда 1).
type houghParams struct {
	MinDist      int // минимальное расстояние между центрами
	CannyHigh    int // верхний порог Canny, нижний, половина
	AccThreshold int // минимум голосов в окрестности 3×3 центра до проверки опоры
	MinRadius    int
	MaxRadius    int
}

func defaultHoughParams() houghParams {
	return houghParams{
		MinDist:      houghMinDist,
		CannyHigh:    houghCannyHigh,
		AccThreshold: houghAccThreshold,
		MinRadius:    houghMinRadius,
		MaxRadius:    houghMaxRadius,
	}
}

// edgePixel: точка границы с градиентом Собеля.
type edgePixel struct {
	x, y   int
	gx, gy int
}

// houghCircles ищет окружности на полутоновом изображении.
// Каждый граничный пиксель голосует вдоль градиента в обе стороны на расстояниях
// MinRadius..MaxRadius; центры, локальные максимумы суммы голосов 3×3 выше порога,
// которые затем проходят проверку опоры в verifyCircle.
func houghCircles(gray *plane, p houghParams) []entity.Circle {
	w, h := gray.w, gray.h
	if w == 0 || h == 0 {
		return nil
	}

	edges := canny(gray, p.CannyHigh/2, p.CannyHigh)
	if len(edges) == 0 {
		return nil
	}

	acc := make([]int, w*h)
	for _, e := range edges {
		norm := math.Hypot(float64(e.gx), float64(e.gy))
		if norm == 0 {
			continue
		}
		dx, dy := float64(e.gx)/norm, float64(e.gy)/norm
		for _, sign := range [2]float64{1, -1} {
			last := -1
			for r := p.MinRadius; r <= p.MaxRadius; r++ {
				cx := int(math.Round(float64(e.x) + sign*float64(r)*dx))
				cy := int(math.Round(float64(e.y) + sign*float64(r)*dy))
				if cx < 0 || cy < 0 || cx >= w || cy >= h {
					break
				}
				i := cy*w + cx
				if i == last {
					continue
				}
				acc[i]++
				last = i
			}
		}
	}

	score := boxSum3(acc, w, h)

	type candidate struct {
		idx   int
		votes int
	}
	var candidates []candidate
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			v := score[i]
			if v <= p.AccThreshold || !isLocalMax(score, w, h, x, y) {
				continue
			}
			candidates = append(candidates, candidate{idx: i, votes: v})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].votes > candidates[b].votes
	})

	minDist2 := p.MinDist * p.MinDist
	var circles []entity.Circle
	for _, c := range candidates {
		cx, cy := c.idx%w, c.idx/w
		tooClose := false
		for _, kept := range circles {
			ddx, ddy := kept.X-cx, kept.Y-cy
			if ddx*ddx+ddy*ddy < minDist2 {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		circle, ok := verifyCircle(edges, cx, cy, p)
		if !ok {
			continue
		}
		circle.Votes = c.votes
		circles = append(circles, circle)
	}
	return circles
}

// verifyCircle уточняет центр в окрестности 3×3 и подбирает радиус по опоре:
// числу граничных точек на окружности, градиент которых направлен вдоль радиуса.
// Прямые стороны и углы дают такую опору только у основания перпендикуляра,
// поэтому окружность принимается, лишь если опора покрывает houghSupportRatio длины 2πr.
func verifyCircle(edges []edgePixel, cx, cy int, p houghParams) (entity.Circle, bool) {
	var best entity.Circle
	bestSupport := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			r, support := radialSupport(edges, cx+dx, cy+dy, p.MinRadius, p.MaxRadius)
			if support > bestSupport {
				best = entity.Circle{X: cx + dx, Y: cy + dy, Radius: r}
				bestSupport = support
			}
		}
	}
	if bestSupport == 0 {
		return entity.Circle{}, false
	}
	need := houghSupportRatio * 2 * math.Pi * float64(best.Radius)
	return best, float64(bestSupport) >= need
}

// radialSupport возвращает радиус с наибольшей опорой и саму опору.
// Опора радиуса r: точки на расстоянии r±1 с радиальным градиентом.
func radialSupport(edges []edgePixel, cx, cy, minR, maxR int) (radius, support int) {
	hist := make([]int, maxR+2)
	for _, e := range edges {
		ex, ey := float64(e.x-cx), float64(e.y-cy)
		d := math.Hypot(ex, ey)
		di := int(math.Round(d))
		if di < minR-1 || di > maxR+1 || d == 0 {
			continue
		}
		norm := math.Hypot(float64(e.gx), float64(e.gy))
		if norm == 0 {
			continue
		}
		cos := math.Abs(ex*float64(e.gx)+ey*float64(e.gy)) / (d * norm)
		if cos < houghRadialCos {
			continue
		}
		hist[di]++
	}
	for r := max(minR, 1); r <= maxR; r++ {
		s := hist[r-1] + hist[r] + hist[r+1]
		if s > support {
			radius, support = r, s
		}
	}
	return radius, support
}

func boxSum3(acc []int, w, h int) []int {
	out := make([]int, len(acc))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := 0
			for dy := -1; dy <= 1; dy++ {
				yy := y + dy
				if yy < 0 || yy >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					xx := x + dx
					if xx < 0 || xx >= w {
						continue
					}
					s += acc[yy*w+xx]
				}
			}
			out[y*w+x] = s
		}
	}
	return out
}

// isLocalMax: строго больше соседей, идущих раньше в развёртке, и не меньше остальных,
// чтобы на плато остался ровно один максимум.
func isLocalMax(score []int, w, h, x, y int) bool {
	v := score[y*w+x]
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			xx, yy := x+dx, y+dy
			if xx < 0 || yy < 0 || xx >= w || yy >= h {
				continue
			}
			n := score[yy*w+xx]
			earlier := dy < 0 || (dy == 0 && dx < 0)
			if earlier && n >= v {
				return false
			}
			if !earlier && n > v {
				return false
			}
		}
	}
	return true
}

// canny возвращает граничные пиксели детектора Canny (L1-норма, апертура 3).
func canny(src *plane, low, high int) []edgePixel {
	w, h := src.w, src.h
	gx := make([]int, w*h)
	gy := make([]int, w*h)
	mag := make([]int, w*h)
	px := func(x, y int) int {
		return int(src.at(reflect101(x, w), reflect101(y, h)))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx := px(x+1, y-1) + 2*px(x+1, y) + px(x+1, y+1) - px(x-1, y-1) - 2*px(x-1, y) - px(x-1, y+1)
			sy := px(x-1, y+1) + 2*px(x, y+1) + px(x+1, y+1) - px(x-1, y-1) - 2*px(x, y-1) - px(x+1, y-1)
			i := y*w + x
			gx[i], gy[i] = sx, sy
			mag[i] = abs(sx) + abs(sy)
		}
	}

	magAt := func(x, y int) int {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mag[y*w+x]
	}

	// Подавление немаксимумов: сравнение с соседями вдоль градиента.
	const tan22, tan67 = 0.41421356, 2.41421356
	thin := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			m := mag[i]
			if m <= low {
				continue
			}
			ax, ay := float64(abs(gx[i])), float64(abs(gy[i]))
			var prev, next int
			switch {
			case ay <= ax*tan22:
				prev, next = magAt(x-1, y), magAt(x+1, y)
			case ay >= ax*tan67:
				prev, next = magAt(x, y-1), magAt(x, y+1)
			case (gx[i] < 0) != (gy[i] < 0):
				prev, next = magAt(x+1, y-1), magAt(x-1, y+1)
			default:
				prev, next = magAt(x-1, y-1), magAt(x+1, y+1)
			}
			thin[i] = m > prev && m >= next
		}
	}

	// Гистерезис: слабые точки остаются, только если связаны с сильными.
	edge := make([]bool, w*h)
	var stack []int
	for i, ok := range thin {
		if ok && mag[i] > high {
			edge[i] = true
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for _, d := range chainDirs {
			nx, ny := x+d.X, y+d.Y
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			j := ny*w + nx
			if thin[j] && !edge[j] {
				edge[j] = true
				stack = append(stack, j)
			}
		}
	}

	var out []edgePixel
	for i, ok := range edge {
		if ok {
			out = append(out, edgePixel{x: i % w, y: i / w, gx: gx[i], gy: gy[i]})
		}
	}
	return out
}

func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// circleBounds нужен для подсветки: прямоугольник, описанный вокруг окружности.
func circleBounds(c entity.Circle) image.Rectangle {
	return image.Rect(c.X-c.Radius, c.Y-c.Radius, c.X+c.Radius+1, c.Y+c.Radius+1)
}
