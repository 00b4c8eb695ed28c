package port

import (
	"context"

	"leaf-health-bot/internal/domain/entity"
)

// DiagnosisStore интерфейс хранилища диагнозов за сессию пользователя
type DiagnosisStore interface {
	// Save сохраняет диагноз под его ImageID
	Save(ctx context.Context, userID int64, result *entity.DiagnosisResult) error

	// Get возвращает диагноз по идентификатору снимка
	Get(ctx context.Context, userID int64, imageID string) (*entity.DiagnosisResult, error)

	// List возвращает диагнозы пользователя в порядке сохранения
	List(ctx context.Context, userID int64) ([]*entity.DiagnosisResult, error)

	// Clear удаляет все диагнозы пользователя
	Clear(ctx context.Context, userID int64) error
}
