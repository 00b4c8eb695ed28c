package report

import (
	"gonum.org/v1/gonum/mat"

	"leaf-health-bot/internal/domain/entity"
)

// MaskHeight: значение выбранной ячейки маски в карте высот.
const MaskHeight = 255

// Heightfield превращает маску поражения в матрицу высот rows×cols со значениями 0 или MaskHeight.
// Нормализацию под масштаб сцены делает потребитель. Для пустой маски возвращает nil.
func Heightfield(mask *entity.Mask) *mat.Dense {
	if mask == nil || mask.Width == 0 || mask.Height == 0 {
		return nil
	}
	data := make([]float64, mask.Width*mask.Height)
	for i, v := range mask.Pix {
		if v {
			data[i] = MaskHeight
		}
	}
	return mat.NewDense(mask.Height, mask.Width, data)
}
