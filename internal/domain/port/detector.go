package port

import (
	"image"

	"leaf-health-bot/internal/domain/entity"
)

// SymptomDetector интерфейс детектора болезней листа
type SymptomDetector interface {
	// Analyze анализирует снимок листа и возвращает диагноз.
	// Вызов не меняет изображение и не хранит состояния между вызовами.
	Analyze(img image.Image) *entity.DiagnosisResult

	// Highlight рисует контуры поражений и подпись со степенью, возвращает JPEG
	Highlight(img image.Image, result *entity.DiagnosisResult) ([]byte, error)
}
