package entity

// Symptom название визуального признака болезни
type Symptom string

const (
	SymptomYellowing   Symptom = "Yellowing"
	SymptomHoles       Symptom = "Holes"
	SymptomFungalSpots Symptom = "Fungal Spots"
	SymptomDriedEdges  Symptom = "Dried Edges"
)

// Symptoms возвращает все симптомы в порядке вывода
func Symptoms() []Symptom {
	return []Symptom{SymptomYellowing, SymptomHoles, SymptomFungalSpots, SymptomDriedEdges}
}

// SymptomEvidence хранит то, на чём основано решение по одному симптому
type SymptomEvidence struct {
	Symptom   Symptom  // какой симптом проверялся
	Ratio     float64  // доля отобранных пикселей, 0..1 (для масочных детекторов)
	Count     int      // число найденных фигур (для детектора окружностей)
	Threshold float64  // порог, который значение должно строго превысить
	Present   bool     // симптом обнаружен
	Mask      *Mask    // маска отобранных пикселей, если есть
	Circles   []Circle // найденные окружности, если есть
}
