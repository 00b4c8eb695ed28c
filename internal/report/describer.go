package report

import (
	"fmt"
	"strings"

	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/domain/port"
)

// Describer формирует подпись к снимку с диагнозом
type Describer struct{}

// NewDescriber создаёт описатель диагнозов
func NewDescriber() *Describer {
	return &Describer{}
}

// Describe возвращает степень, процент, симптомы и рекомендацию одним текстом
func (Describer) Describe(result *entity.DiagnosisResult) string {
	if result == nil {
		return noAdvice
	}

	var b strings.Builder
	if result.ImageID != "" {
		fmt.Fprintf(&b, "%s\n", result.ImageID)
	}
	fmt.Fprintf(&b, "Severity: %s\n", result.Severity)
	fmt.Fprintf(&b, "Diseased area: %.2f%%\n", result.Percentage)
	fmt.Fprintf(&b, "Symptoms: %s\n", symptomList(result.Symptoms))
	fmt.Fprintf(&b, "\nPrecautions: %s", SeverityAdvice(result.Severity))
	for _, s := range result.Symptoms {
		fmt.Fprintf(&b, "\n• %s", SymptomAdvice(s))
	}
	return b.String()
}

func symptomList(symptoms []entity.Symptom) string {
	if len(symptoms) == 0 {
		return "none"
	}
	names := make([]string, len(symptoms))
	for i, s := range symptoms {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

var _ port.DiagnosisDescriber = Describer{}
