package vision

import (
	"image"

	"gonum.org/v1/gonum/floats"

	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/domain/port"
)

// Detector: реализация детектора болезней листа на чистом Go.
// Не хранит состояния между вызовами, поэтому безопасен для параллельного использования.
type Detector struct {
	circles houghParams
}

// NewDetector создаёт детектор с фиксированными порогами.
func NewDetector() *Detector {
	return &Detector{circles: defaultHoughParams()}
}

// Analyze измеряет поражённую площадь, определяет степень и ищет симптомы.
func (d *Detector) Analyze(img image.Image) *entity.DiagnosisResult {
	hsv := toHSV(img)
	gray := toGray(img)

	percentage, regions, mask := d.measureDiseaseArea(hsv)
	symptoms, evidence := d.detectSymptoms(hsv, gray)

	return &entity.DiagnosisResult{
		Width:       hsv.w,
		Height:      hsv.h,
		Severity:    entity.ClassifySeverity(percentage),
		Percentage:  percentage,
		Symptoms:    symptoms,
		Evidence:    evidence,
		Regions:     regions,
		DiseaseMask: mask,
	}
}

// MeasureDiseaseArea возвращает долю поражённой площади в процентах и контуры поражений.
func (d *Detector) MeasureDiseaseArea(img image.Image) (float64, []entity.Region) {
	percentage, regions, _ := d.measureDiseaseArea(toHSV(img))
	return percentage, regions
}

// DetectSymptoms проверяет все симптомы и возвращает найденные в порядке entity.Symptoms().
func (d *Detector) DetectSymptoms(img image.Image) ([]entity.Symptom, map[entity.Symptom]entity.SymptomEvidence) {
	return d.detectSymptoms(toHSV(img), toGray(img))
}

func (d *Detector) measureDiseaseArea(hsv *hsvImage) (float64, []entity.Region, *entity.Mask) {
	mask := hsv.inRange(diseaseLower, diseaseUpper, hsv.bounds())
	mask = closeMask(mask, closeKernelSize)
	regions := findExternalContours(mask)

	areas := make([]float64, len(regions))
	for i, r := range regions {
		areas[i] = r.Area
	}
	return areaPercentage(floats.Sum(areas), hsv.w, hsv.h), regions, mask
}

func (d *Detector) detectSymptoms(hsv *hsvImage, gray *plane) ([]entity.Symptom, map[entity.Symptom]entity.SymptomEvidence) {
	evidence := map[entity.Symptom]entity.SymptomEvidence{
		entity.SymptomYellowing:   d.yellowing(hsv),
		entity.SymptomHoles:       d.holes(gray),
		entity.SymptomFungalSpots: d.fungalSpots(gray),
		entity.SymptomDriedEdges:  d.driedEdges(hsv),
	}
	return presentSymptoms(evidence), evidence
}

func (d *Detector) yellowing(hsv *hsvImage) entity.SymptomEvidence {
	mask := hsv.inRange(yellowLower, yellowUpper, hsv.bounds())
	return ratioEvidence(entity.SymptomYellowing, mask, yellowingRatioThreshold)
}

func (d *Detector) holes(gray *plane) entity.SymptomEvidence {
	mask := gray.below(holeIntensity)
	return ratioEvidence(entity.SymptomHoles, mask, holesRatioThreshold)
}

func (d *Detector) fungalSpots(gray *plane) entity.SymptomEvidence {
	blurred := medianBlur(gray, medianKernelSize)
	circles := houghCircles(blurred, d.circles)
	return countEvidence(entity.SymptomFungalSpots, circles)
}

// driedEdges смотрит только на левую полосу шириной driedEdgeColumns.
func (d *Detector) driedEdges(hsv *hsvImage) entity.SymptomEvidence {
	border := image.Rect(0, 0, min(driedEdgeColumns, hsv.w), hsv.h)
	mask := hsv.inRange(driedLower, driedUpper, border)
	return ratioEvidence(entity.SymptomDriedEdges, mask, driedEdgesRatioThreshold)
}

// areaPercentage переводит площадь в проценты от кадра и ограничивает [0, 100].
func areaPercentage(area float64, w, h int) float64 {
	total := w * h
	if total <= 0 {
		return 0
	}
	p := 100 * area / float64(total)
	return min(max(p, 0), 100)
}

func ratioEvidence(s entity.Symptom, mask *entity.Mask, threshold float64) entity.SymptomEvidence {
	ratio := mask.Ratio()
	return entity.SymptomEvidence{
		Symptom:   s,
		Ratio:     ratio,
		Threshold: threshold,
		Present:   ratio > threshold,
		Mask:      mask,
	}
}

// countEvidence: симптом есть, если окружностей не меньше fungalSpotsMinCircles,
// то есть число строго больше fungalSpotsMinCircles-1.
func countEvidence(s entity.Symptom, circles []entity.Circle) entity.SymptomEvidence {
	threshold := fungalSpotsMinCircles - 1
	return entity.SymptomEvidence{
		Symptom:   s,
		Count:     len(circles),
		Threshold: float64(threshold),
		Present:   len(circles) > threshold,
		Circles:   circles,
	}
}

// presentSymptoms собирает найденные симптомы в фиксированном порядке.
func presentSymptoms(evidence map[entity.Symptom]entity.SymptomEvidence) []entity.Symptom {
	var found []entity.Symptom
	for _, s := range entity.Symptoms() {
		if evidence[s].Present {
			found = append(found, s)
		}
	}
	return found
}

var _ port.SymptomDetector = (*Detector)(nil)
