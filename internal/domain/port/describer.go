package port

import "leaf-health-bot/internal/domain/entity"

// DiagnosisDescriber интерфейс описателя диагноза
type DiagnosisDescriber interface {
	// Describe возвращает короткое текстовое описание диагноза с рекомендациями
	Describe(result *entity.DiagnosisResult) string
}
