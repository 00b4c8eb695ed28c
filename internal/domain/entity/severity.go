package entity

// Severity степень поражения листа
type Severity string

const (
	SeverityHealthy  Severity = "Healthy"
	SeverityLow      Severity = "Low"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
)

// Нижние границы диапазонов, в процентах поражённой площади.
const (
	LowSeverityPercent      = 10.0
	ModerateSeverityPercent = 30.0
	SevereSeverityPercent   = 60.0
)

// Severities возвращает все степени в порядке возрастания
func Severities() []Severity {
	return []Severity{SeverityHealthy, SeverityLow, SeverityModerate, SeveritySevere}
}

// ClassifySeverity переводит процент поражённой площади в степень.
// Нижняя граница каждого диапазона включается: ровно 10, это уже Low.
func ClassifySeverity(percentage float64) Severity {
	switch {
	case percentage < LowSeverityPercent:
		return SeverityHealthy
	case percentage < ModerateSeverityPercent:
		return SeverityLow
	case percentage < SevereSeverityPercent:
		return SeverityModerate
	default:
		return SeveritySevere
	}
}
