package vision

import (
	"image"
	"math"

	"leaf-health-bot/internal/domain/entity"
)

// Обход по часовой стрелке (ось Y направлена вниз): E, SE, S, SW, W, NW, N, NE.
var chainDirs = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// findExternalContours возвращает внешние контуры 8-связных областей маски.
// Вложенные контуры (дыры и всё, что внутри них) игнорируются, как RETR_EXTERNAL.
// Площадь считается по многоугольнику через центры граничных пикселей.
func findExternalContours(m *entity.Mask) []entity.Region {
	w, h := m.Width, m.Height
	if w == 0 || h == 0 {
		return nil
	}

	solid := fillHoles(m)
	labels := make([]bool, w*h)
	var regions []entity.Region
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if !solid[i] || labels[i] {
				continue
			}
			markComponent(solid, labels, w, h, x, y)
			chain := traceBoundary(solid, w, h, image.Pt(x, y))
			regions = append(regions, entity.Region{
				Points: compressChain(chain),
				Area:   polygonArea(chain),
			})
		}
	}
	return regions
}

// fillHoles закрашивает фон, не связанный (4-связно) с краем кадра.
func fillHoles(m *entity.Mask) []bool {
	w, h := m.Width, m.Height
	outside := make([]bool, w*h)
	stack := make([]int, 0, 2*(w+h))
	push := func(x, y int) {
		i := y*w + x
		if m.Pix[i] || outside[i] {
			return
		}
		outside[i] = true
		stack = append(stack, i)
	}
	for x := 0; x < w; x++ {
		push(x, 0)
		push(x, h-1)
	}
	for y := 0; y < h; y++ {
		push(0, y)
		push(w-1, y)
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		if x > 0 {
			push(x-1, y)
		}
		if x < w-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < h-1 {
			push(x, y+1)
		}
	}

	solid := make([]bool, w*h)
	for i := range solid {
		solid[i] = m.Pix[i] || !outside[i]
	}
	return solid
}

// markComponent помечает 8-связную область, начиная с (sx, sy).
func markComponent(pix, labels []bool, w, h, sx, sy int) {
	stack := []int{sy*w + sx}
	labels[sy*w+sx] = true
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
			if pix[j] && !labels[j] {
				labels[j] = true
				stack = append(stack, j)
			}
		}
	}
}

// traceBoundary обходит границу области по соседям Мура.
// start: первый пиксель области в порядке развёртки, поэтому его западный сосед, фон.
// Обход заканчивается, когда из стартовой точки повторяется первый шаг.
func traceBoundary(pix []bool, w, h int, start image.Point) []image.Point {
	inside := func(p image.Point) bool {
		return p.X >= 0 && p.Y >= 0 && p.X < w && p.Y < h && pix[p.Y*w+p.X]
	}

	chain := []image.Point{start}
	cur := start
	back := 4
	first := -1
	for steps := 4*w*h + 8; steps > 0; steps-- {
		dir := -1
		for i := 1; i <= 8; i++ {
			k := (back + i) % 8
			if inside(cur.Add(chainDirs[k])) {
				dir = k
				break
			}
		}
		if dir < 0 {
			break
		}
		if cur == start && first >= 0 && dir == first {
			break
		}
		if first < 0 {
			first = dir
		}
		cur = cur.Add(chainDirs[dir])
		chain = append(chain, cur)
		// последний проверенный фоновый сосед, отсчитанный от новой точки
		back = (dir + 6 - dir%2) % 8
	}
	if len(chain) > 1 && chain[len(chain)-1] == start {
		chain = chain[:len(chain)-1]
	}
	return chain
}

// compressChain оставляет только точки, где меняется направление (CHAIN_APPROX_SIMPLE).
func compressChain(chain []image.Point) []image.Point {
	n := len(chain)
	if n < 3 {
		return append([]image.Point(nil), chain...)
	}
	out := make([]image.Point, 0, n)
	for i, p := range chain {
		prev := chain[(i+n-1)%n]
		next := chain[(i+1)%n]
		if p.Sub(prev) == next.Sub(p) {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		out = append(out, chain[0])
	}
	return out
}

// polygonArea: площадь по формуле шнурка.
func polygonArea(pts []image.Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum int
	for i, p := range pts {
		q := pts[(i+1)%n]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(float64(sum)) / 2
}
