package entity

// Mask: бинарная маска размером с изображение (или его часть)
type Mask struct {
	Width  int
	Height int
	Pix    []bool // построчно, len = Width*Height
}

// NewMask создаёт пустую маску
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{Width: width, Height: height, Pix: make([]bool, width*height)}
}

// At сообщает, выбран ли пиксель; вне маски всегда false
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// Set отмечает пиксель
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Pix[y*m.Width+x] = v
}

// Count возвращает число выбранных пикселей
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Ratio возвращает долю выбранных пикселей; для пустой маски 0
func (m *Mask) Ratio() float64 {
	total := m.Width * m.Height
	if total <= 0 {
		return 0
	}
	return float64(m.Count()) / float64(total)
}
