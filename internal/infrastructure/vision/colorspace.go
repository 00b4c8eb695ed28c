package vision

import (
	"image"
	"math"

	"leaf-health-bot/internal/domain/entity"
)

// plane: одноканальное 8-битное изображение.
type plane struct {
	w, h int
	pix  []uint8
}

func newPlane(w, h int) *plane {
	return &plane{w: w, h: h, pix: make([]uint8, w*h)}
}

func (p *plane) at(x, y int) uint8 {
	return p.pix[y*p.w+x]
}

// hsvImage хранит каналы HSV раздельно.
type hsvImage struct {
	w, h   int
	h8     []uint8 // тон, 0..179
	s8, v8 []uint8
}

// toHSV переводит изображение в HSV так же, как cvtColor(COLOR_BGR2HSV) для 8 бит.
func toHSV(img image.Image) *hsvImage {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := &hsvImage{
		w:  w,
		h:  h,
		h8: make([]uint8, w*h),
		s8: make([]uint8, w*h),
		v8: make([]uint8, w*h),
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl := rgb8(img, b.Min.X+x, b.Min.Y+y)
			hh, ss, vv := rgbToHSV(r, g, bl)
			i := y*w + x
			out.h8[i], out.s8[i], out.v8[i] = hh, ss, vv
		}
	}
	return out
}

// rgbToHSV: H в шкале 0..180, S и V в 0..255.
func rgbToHSV(r, g, b uint8) (h, s, v uint8) {
	maxC := max(r, g, b)
	minC := min(r, g, b)
	diff := float64(maxC) - float64(minC)

	v = maxC
	if maxC != 0 {
		s = uint8(math.Round(diff * 255 / float64(maxC)))
	}
	if diff == 0 {
		return 0, s, v
	}

	fr, fg, fb := float64(r), float64(g), float64(b)
	var deg float64
	switch maxC {
	case r:
		deg = 60 * (fg - fb) / diff
	case g:
		deg = 60*(fb-fr)/diff + 120
	default:
		deg = 60*(fr-fg)/diff + 240
	}
	if deg < 0 {
		deg += 360
	}
	hue := math.Round(deg / 2)
	if hue >= 180 {
		hue -= 180
	}
	return uint8(hue), s, v
}

// toGray повторяет COLOR_BGR2GRAY: Y = 0.299R + 0.587G + 0.114B в фиксированной точке.
func toGray(img image.Image) *plane {
	b := img.Bounds()
	out := newPlane(b.Dx(), b.Dy())
	for y := 0; y < out.h; y++ {
		for x := 0; x < out.w; x++ {
			r, g, bl := rgb8(img, b.Min.X+x, b.Min.Y+y)
			out.pix[y*out.w+x] = uint8((uint32(r)*4899 + uint32(g)*9617 + uint32(bl)*1868 + 1<<13) >> 14)
		}
	}
	return out
}

func rgb8(img image.Image, x, y int) (r, g, b uint8) {
	r32, g32, b32, _ := img.At(x, y).RGBA()
	return uint8(r32 >> 8), uint8(g32 >> 8), uint8(b32 >> 8)
}

// inRange отбирает пиксели rect, у которых все три канала лежат в [lo, hi].
// Маска имеет размер rect (после пересечения с изображением).
func (m *hsvImage) inRange(lo, hi hsvBound, rect image.Rectangle) *entity.Mask {
	rect = rect.Intersect(image.Rect(0, 0, m.w, m.h))
	mask := entity.NewMask(rect.Dx(), rect.Dy())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			i := y*m.w + x
			hh, ss, vv := m.h8[i], m.s8[i], m.v8[i]
			if hh < lo.H || hh > hi.H || ss < lo.S || ss > hi.S || vv < lo.V || vv > hi.V {
				continue
			}
			mask.Pix[(y-rect.Min.Y)*mask.Width+(x-rect.Min.X)] = true
		}
	}
	return mask
}

func (m *hsvImage) bounds() image.Rectangle {
	return image.Rect(0, 0, m.w, m.h)
}

// below отбирает пиксели темнее порога.
func (p *plane) below(threshold uint8) *entity.Mask {
	mask := entity.NewMask(p.w, p.h)
	for i, v := range p.pix {
		mask.Pix[i] = v < threshold
	}
	return mask
}
