package app

import (
	"context"
	"sync"

	"leaf-health-bot/internal/domain/entity"
	"leaf-health-bot/internal/domain/port"
)

type UserService struct {
	repo port.UserRepository
	// mu делает проверку занятости и смену состояния одним шагом
	mu sync.Mutex
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Get возвращает снимок состояния пользователя; изменения копии не сохраняются
func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setState(ctx, userID, chatID, state)
}

// BeginCheck ждёт фото; во время анализа отклоняется с ErrBusy
func (s *UserService) BeginCheck(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.transition(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

// Cancel возвращает в главное меню; идущий анализ не прерывается
func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.transition(ctx, userID, chatID, entity.StateMainMenu)
}

// StartProcessing переводит пользователя в обработку; второй снимок во время анализа отклоняется
func (s *UserService) StartProcessing(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.transition(ctx, userID, chatID, entity.StateProcessing)
}

// FinishProcessing возвращает пользователя в главное меню после анализа
func (s *UserService) FinishProcessing(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}

func (s *UserService) transition(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if user.IsBusy() {
		return user, ErrBusy
	}
	return s.setState(ctx, userID, chatID, state)
}

func (s *UserService) setState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	// Get создаёт пользователя, если его ещё нет
	if _, err := s.repo.Get(ctx, userID, chatID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateState(ctx, userID, state); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID, chatID)
}
