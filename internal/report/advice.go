// Package report превращает диагнозы в текст для пользователя: рекомендации, подписи, отчёты.
package report

import "leaf-health-bot/internal/domain/entity"

// severityAdvice: что делать при каждой степени поражения.
var severityAdvice = map[entity.Severity]string{
	entity.SeverityHealthy:  "No significant issues detected. Maintain regular monitoring and good agricultural practices.",
	entity.SeverityLow:      "Minor signs of disease. Use organic pesticides and avoid excess watering.",
	entity.SeverityModerate: "Moderate infection detected. Apply recommended fungicides and remove affected leaves.",
	entity.SeveritySevere:   "Severe disease detected. Immediate action required: isolate plants, use chemical treatments, and consult an agronomist.",
}

// symptomAdvice: короткий совет по каждому симптому.
var symptomAdvice = map[entity.Symptom]string{
	entity.SymptomYellowing:   "Yellowing may point to nutrient deficiency or early infection. Check soil nitrogen and watering schedule.",
	entity.SymptomHoles:       "Holes are usually caused by chewing insects. Inspect the underside of leaves and consider targeted insecticide.",
	entity.SymptomFungalSpots: "Round spots suggest fungal infection. Improve air circulation and apply a fungicide.",
	entity.SymptomDriedEdges:  "Dried edges indicate water stress or leaf scorch. Water consistently and protect plants from heat.",
}

const noAdvice = "No data available."

// SeverityAdvice возвращает рекомендацию для степени поражения
func SeverityAdvice(s entity.Severity) string {
	if text, ok := severityAdvice[s]; ok {
		return text
	}
	return noAdvice
}

// SymptomAdvice возвращает совет по симптому
func SymptomAdvice(s entity.Symptom) string {
	if text, ok := symptomAdvice[s]; ok {
		return text
	}
	return noAdvice
}
