package storage

import (
	"context"
	"errors"
	"sync"

	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/domain/port"
)

// ErrDiagnosisNotFound возвращается, если снимка нет в истории
var ErrDiagnosisNotFound = errors.New("diagnosis not found")

// MemoryDiagnosisStore in-memory история диагнозов по пользователям
type MemoryDiagnosisStore struct {
	mu     sync.RWMutex
	limit  int
	byUser map[int64][]*entity.DiagnosisResult
}

// NewMemoryDiagnosisStore создаёт хранилище; limit, сколько последних диагнозов держать на пользователя (0 = без ограничения)
func NewMemoryDiagnosisStore(limit int) *MemoryDiagnosisStore {
	return &MemoryDiagnosisStore{
		limit:  limit,
		byUser: make(map[int64][]*entity.DiagnosisResult),
	}
}

// Save сохраняет диагноз; повторный ImageID заменяет старую запись и переносит её в конец
func (s *MemoryDiagnosisStore) Save(ctx context.Context, userID int64, result *entity.DiagnosisResult) error {
	if result == nil {
		return errors.New("nil diagnosis")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.byUser[userID]
	for i, r := range list {
		if r.ImageID == result.ImageID {
			list = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	list = append(list, result)
	if s.limit > 0 && len(list) > s.limit {
		list = list[len(list)-s.limit:]
	}
	s.byUser[userID] = list

	return nil
}

// Get возвращает диагноз по идентификатору снимка
func (s *MemoryDiagnosisStore) Get(ctx context.Context, userID int64, imageID string) (*entity.DiagnosisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.byUser[userID] {
		if r.ImageID == imageID {
			return r, nil
		}
	}
	return nil, ErrDiagnosisNotFound
}

// List возвращает копию истории пользователя
func (s *MemoryDiagnosisStore) List(ctx context.Context, userID int64) ([]*entity.DiagnosisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*entity.DiagnosisResult(nil), s.byUser[userID]...), nil
}

// Clear удаляет историю пользователя
func (s *MemoryDiagnosisStore) Clear(ctx context.Context, userID int64) error {
	s.mu.Lock()
	delete(s.byUser, userID)
	s.mu.Unlock()

	return nil
}

// Проверка реализации интерфейса
var _ port.DiagnosisStore = (*MemoryDiagnosisStore)(nil)
