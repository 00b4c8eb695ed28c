package vision

// Пороговые значения подобраны эмпирически; HSV в шкале OpenCV (H 0..180, S и V 0..255).

// Поражённая ткань (жёлто-бурая) для оценки площади.
var (
	diseaseLower = hsvBound{H: 10, S: 100, V: 100}
	diseaseUpper = hsvBound{H: 40, S: 255, V: 255}
)

// Пожелтение.
var (
	yellowLower = hsvBound{H: 20, S: 100, V: 100}
	yellowUpper = hsvBound{H: 35, S: 255, V: 255}
)

// Бурый цвет засохшего края.
var (
	driedLower = hsvBound{H: 10, S: 100, V: 20}
	driedUpper = hsvBound{H: 20, S: 255, V: 200}
)

const (
	// closeKernelSize: сторона квадратного элемента для закрытия маски.
	closeKernelSize = 5

	// holeIntensity: пиксели темнее этого значения считаются дырами.
	holeIntensity = 20

	// driedEdgeColumns: ширина левой полосы, где ищется засохший край.
	driedEdgeColumns = 10

	// medianKernelSize: апертура медианного фильтра перед поиском окружностей.
	medianKernelSize = 5
)

// Параметры поиска окружностей (градиентный метод Хафа).
const (
	houghDP           = 1.0
	houghMinDist      = 20
	houghCannyHigh    = 50
	houghAccThreshold = 30
	houghMinRadius    = 5
	houghMaxRadius    = 30

	// houghSupportRatio: доля длины окружности, покрытая граничными точками с радиальным градиентом.
	houghSupportRatio = 0.55
	// houghRadialCos: косинус предельного угла между градиентом и радиусом (около 20°).
	houghRadialCos = 0.94
)

// Пороги симптомов: значение должно строго превысить порог.
const (
	yellowingRatioThreshold  = 0.02
	holesRatioThreshold      = 0.01
	fungalSpotsMinCircles    = 2
	driedEdgesRatioThreshold = 0.02
)

// hsvBound: граница диапазона inRange, включительно.
type hsvBound struct {
	H, S, V uint8
}
