package entity

import "image"

// Region представляет связную область поражённой ткани (внешний контур маски)
type Region struct {
	Points []image.Point // сжатый контур: вершины ломаной без коллинеарных точек
	Area   float64       // площадь многоугольника контура в пикселях
}

// Bounds возвращает ограничивающий прямоугольник контура
func (r Region) Bounds() image.Rectangle {
	if len(r.Points) == 0 {
		return image.Rectangle{}
	}
	b := image.Rectangle{Min: r.Points[0], Max: r.Points[0]}
	for _, p := range r.Points[1:] {
		b.Min.X = min(b.Min.X, p.X)
		b.Min.Y = min(b.Min.Y, p.Y)
		b.Max.X = max(b.Max.X, p.X)
		b.Max.Y = max(b.Max.Y, p.Y)
	}
	// Max включительно для точек контура, а Rectangle полуоткрыт.
	b.Max = b.Max.Add(image.Pt(1, 1))
	return b
}

// Center возвращает координаты центра области
func (r Region) Center() (x, y int) {
	b := r.Bounds()
	return b.Min.X + b.Dx()/2, b.Min.Y + b.Dy()/2
}

// Circle: окружность, найденная детектором грибковых пятен
type Circle struct {
	X      int // центр по X
	Y      int // центр по Y
	Radius int // радиус в пикселях
	Votes  int // голоса аккумулятора в центре
}
