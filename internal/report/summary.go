package report

import (
	"gonum.org/v1/gonum/stat"

	"leaf-health-bot/internal/domain/entity"
)

// Summary: сводка по истории диагнозов.
type Summary struct {
	Count            int
	MeanPercentage   float64
	StdDevPercentage float64 // 0, если снимок один
	BySeverity       map[entity.Severity]int
	BySymptom        map[entity.Symptom]int
}

// Summarize считает среднее и разброс поражённой площади и частоты степеней и симптомов.
func Summarize(results []*entity.DiagnosisResult) Summary {
	sum := Summary{
		BySeverity: make(map[entity.Severity]int),
		BySymptom:  make(map[entity.Symptom]int),
	}
	percentages := make([]float64, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		percentages = append(percentages, r.Percentage)
		sum.BySeverity[r.Severity]++
		for _, s := range r.Symptoms {
			sum.BySymptom[s]++
		}
	}

	sum.Count = len(percentages)
	if sum.Count == 0 {
		return sum
	}
	sum.MeanPercentage = stat.Mean(percentages, nil)
	if sum.Count > 1 {
		sum.StdDevPercentage = stat.StdDev(percentages, nil)
	}
	return sum
}
