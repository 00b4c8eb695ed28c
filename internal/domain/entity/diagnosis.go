package entity

// DiagnosisResult хранит итог анализа одного снимка листа.
// После возврата из сервиса результат не изменяется.
type DiagnosisResult struct {
	ImageID     string                      // идентификатор снимка от вызывающей стороны
	Width       int                         // ширина изображения
	Height      int                         // высота изображения
	Severity    Severity                    // степень поражения (зависит только от Percentage)
	Percentage  float64                     // поражённая площадь, 0..100
	Symptoms    []Symptom                   // найденные симптомы в порядке Symptoms()
	Evidence    map[Symptom]SymptomEvidence // данные по каждому проверенному симптому
	Regions     []Region                    // контуры поражённых участков для подсветки
	DiseaseMask *Mask                       // очищенная маска поражения (карта высот для 3D)
}

// HasSymptom сообщает, найден ли симптом
func (r *DiagnosisResult) HasSymptom(s Symptom) bool {
	for _, found := range r.Symptoms {
		if found == s {
			return true
		}
	}
	return false
}

// Healthy сообщает, что лист здоров и симптомов нет
func (r *DiagnosisResult) Healthy() bool {
	return r.Severity == SeverityHealthy && len(r.Symptoms) == 0
}
