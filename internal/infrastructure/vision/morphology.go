package vision

import (
	"slices"

	"leaf-health-bot/internal/domain/entity"
)

// closeMask выполняет морфологическое закрытие квадратным элементом size×size.
// Как и в OpenCV, при дилатации пиксели за краем не учитываются,
// а при эрозии считаются отмеченными, поэтому край кадра не «съедается».
func closeMask(m *entity.Mask, size int) *entity.Mask {
	return erode(dilate(m, size), size)
}

func dilate(m *entity.Mask, size int) *entity.Mask {
	return morph(m, size, false)
}

func erode(m *entity.Mask, size int) *entity.Mask {
	return morph(m, size, true)
}

// morph применяет прямоугольный элемент как два одномерных прохода.
// erosion=true: пиксель остаётся, только если всё окно отмечено.
func morph(m *entity.Mask, size int, erosion bool) *entity.Mask {
	w, h := m.Width, m.Height
	r := size / 2

	rows := entity.NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rows.Pix[y*w+x] = windowHit(erosion, func(k int) (bool, bool) {
				xx := x + k
				if xx < 0 || xx >= w {
					return false, false
				}
				return m.Pix[y*w+xx], true
			}, r)
		}
	}

	out := entity.NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[y*w+x] = windowHit(erosion, func(k int) (bool, bool) {
				yy := y + k
				if yy < 0 || yy >= h {
					return false, false
				}
				return rows.Pix[yy*w+x], true
			}, r)
		}
	}
	return out
}

// windowHit проходит окно [-r, r]; sample возвращает значение и признак «внутри кадра».
func windowHit(erosion bool, sample func(k int) (bool, bool), r int) bool {
	for k := -r; k <= r; k++ {
		v, inside := sample(k)
		if !inside {
			continue
		}
		if erosion && !v {
			return false
		}
		if !erosion && v {
			return true
		}
	}
	return erosion
}

// medianBlur: медианный фильтр с квадратной апертурой, край дублируется.
func medianBlur(src *plane, ksize int) *plane {
	out := newPlane(src.w, src.h)
	if src.w == 0 || src.h == 0 {
		return out
	}
	r := ksize / 2
	window := make([]uint8, 0, ksize*ksize)
	for y := 0; y < src.h; y++ {
		for x := 0; x < src.w; x++ {
			window = window[:0]
			for dy := -r; dy <= r; dy++ {
				yy := clamp(y+dy, 0, src.h-1)
				for dx := -r; dx <= r; dx++ {
					xx := clamp(x+dx, 0, src.w-1)
					window = append(window, src.at(xx, yy))
				}
			}
			slices.Sort(window)
			out.pix[y*src.w+x] = window[len(window)/2]
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
