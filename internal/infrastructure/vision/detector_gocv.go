//go:build gocv
// +build gocv

package vision

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/floats"

	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/domain/port"
)

// GoCVDetector: тот же конвейер на OpenCV.
type GoCVDetector struct {
	circles houghParams
	// fallback обрабатывает вырожденные кадры, которые нельзя превратить в Mat.
	fallback *Detector
}

// NewGoCVDetector создаёт детектор на OpenCV с фиксированными порогами.
func NewGoCVDetector() *GoCVDetector {
	return &GoCVDetector{
		circles:  defaultHoughParams(),
		fallback: NewDetector(),
	}
}

// NewDefault возвращает детектор на OpenCV (сборка с тегом gocv).
func NewDefault() port.SymptomDetector {
	return NewGoCVDetector()
}

// Analyze измеряет поражённую площадь, определяет степень и ищет симптомы.
func (d *GoCVDetector) Analyze(img image.Image) *entity.DiagnosisResult {
	mat, err := toMat(img)
	if err != nil {
		return d.fallback.Analyze(img)
	}
	defer mat.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(mat, &hsv, gocv.ColorBGRToHSV)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	percentage, regions, mask := d.measureDiseaseArea(hsv)

	evidence := map[entity.Symptom]entity.SymptomEvidence{
		entity.SymptomYellowing:   d.yellowing(hsv),
		entity.SymptomHoles:       d.holes(gray),
		entity.SymptomFungalSpots: d.fungalSpots(gray),
		entity.SymptomDriedEdges:  d.driedEdges(hsv),
	}

	return &entity.DiagnosisResult{
		Width:       mat.Cols(),
		Height:      mat.Rows(),
		Severity:    entity.ClassifySeverity(percentage),
		Percentage:  percentage,
		Symptoms:    presentSymptoms(evidence),
		Evidence:    evidence,
		Regions:     regions,
		DiseaseMask: mask,
	}
}

func (d *GoCVDetector) measureDiseaseArea(hsv gocv.Mat) (float64, []entity.Region, *entity.Mask) {
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsv, scalar(diseaseLower), scalar(diseaseUpper), &mask)

	// Закрытие склеивает близкие пятна и убирает шум порога.
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(closeKernelSize, closeKernelSize))
	defer kernel.Close()
	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(mask, &closed, gocv.MorphClose, kernel)

	contours := gocv.FindContours(closed, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	regions := make([]entity.Region, 0, contours.Size())
	areas := make([]float64, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		area := gocv.ContourArea(c)
		regions = append(regions, entity.Region{Points: c.ToPoints(), Area: area})
		areas = append(areas, area)
	}

	return areaPercentage(floats.Sum(areas), hsv.Cols(), hsv.Rows()), regions, matToMask(closed)
}

func (d *GoCVDetector) yellowing(hsv gocv.Mat) entity.SymptomEvidence {
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsv, scalar(yellowLower), scalar(yellowUpper), &mask)
	return ratioEvidence(entity.SymptomYellowing, matToMask(mask), yellowingRatioThreshold)
}

func (d *GoCVDetector) holes(gray gocv.Mat) entity.SymptomEvidence {
	// THRESH_BINARY_INV отбирает значения <= thresh, поэтому берём на единицу меньше.
	dark := gocv.NewMat()
	defer dark.Close()
	gocv.Threshold(gray, &dark, holeIntensity-1, 255, gocv.ThresholdBinaryInv)
	return ratioEvidence(entity.SymptomHoles, matToMask(dark), holesRatioThreshold)
}

func (d *GoCVDetector) fungalSpots(gray gocv.Mat) entity.SymptomEvidence {
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.MedianBlur(gray, &blurred, medianKernelSize)

	found := gocv.NewMat()
	defer found.Close()
	gocv.HoughCirclesWithParams(blurred, &found, gocv.HoughGradient,
		houghDP, float64(d.circles.MinDist),
		float64(d.circles.CannyHigh), float64(d.circles.AccThreshold),
		d.circles.MinRadius, d.circles.MaxRadius)

	var circles []entity.Circle
	if !found.Empty() {
		circles = make([]entity.Circle, 0, found.Cols())
		for i := 0; i < found.Cols(); i++ {
			circles = append(circles, entity.Circle{
				X:      int(found.GetFloatAt(0, i*3)),
				Y:      int(found.GetFloatAt(0, i*3+1)),
				Radius: int(found.GetFloatAt(0, i*3+2)),
			})
		}
	}
	return countEvidence(entity.SymptomFungalSpots, circles)
}

func (d *GoCVDetector) driedEdges(hsv gocv.Mat) entity.SymptomEvidence {
	border := hsv.Region(image.Rect(0, 0, min(driedEdgeColumns, hsv.Cols()), hsv.Rows()))
	defer border.Close()

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(border, scalar(driedLower), scalar(driedUpper), &mask)
	return ratioEvidence(entity.SymptomDriedEdges, matToMask(mask), driedEdgesRatioThreshold)
}

// Highlight рисует контуры поражений, найденные пятна и подпись со степенью, возвращает JPEG.
func (d *GoCVDetector) Highlight(img image.Image, result *entity.DiagnosisResult) ([]byte, error) {
	if result == nil {
		return nil, errors.New("no diagnosis to highlight")
	}
	mat, err := toMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	magenta := color.RGBA{R: 255, B: 255, A: 255}

	if len(result.Regions) > 0 {
		points := make([][]image.Point, 0, len(result.Regions))
		for _, r := range result.Regions {
			points = append(points, r.Points)
		}
		contours := gocv.NewPointsVectorFromPoints(points)
		defer contours.Close()
		gocv.DrawContours(&mat, contours, -1, red, 2)
	}
	for _, c := range result.Evidence[entity.SymptomFungalSpots].Circles {
		gocv.Circle(&mat, image.Pt(c.X, c.Y), c.Radius, magenta, 2)
	}
	gocv.PutText(&mat, "Severity: "+string(result.Severity), image.Pt(10, 30),
		gocv.FontHersheySimplex, 1, blue, 2)

	out, err := mat.ToImage()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// toMat превращает image.Image в BGR gocv.Mat.
func toMat(img image.Image) (gocv.Mat, error) {
	if img == nil || img.Bounds().Empty() {
		return gocv.NewMat(), errors.New("empty image")
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to convert image")
}

// matToMask копирует 8-битную маску OpenCV в entity.Mask.
func matToMask(m gocv.Mat) *entity.Mask {
	mask := entity.NewMask(m.Cols(), m.Rows())
	if m.Empty() {
		return mask
	}
	for y := 0; y < m.Rows(); y++ {
		for x := 0; x < m.Cols(); x++ {
			mask.Pix[y*mask.Width+x] = m.GetUCharAt(y, x) != 0
		}
	}
	return mask
}

func scalar(b hsvBound) gocv.Scalar {
	return gocv.NewScalar(float64(b.H), float64(b.S), float64(b.V), 0)
}

var _ port.SymptomDetector = (*GoCVDetector)(nil)
