package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"leaf-health-bot/internal/domain/entity"
)

func TestMemoryUserRepository_GetCreatesUser(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	user, err := repo.Get(ctx, 7, 70)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)

	require.NoError(t, repo.UpdateState(ctx, 7, entity.StateAwaitingPhoto))
	user, err = repo.Get(ctx, 7, 70)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingPhoto, user.State)
}

func TestMemoryUserRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	user, err := repo.Get(ctx, 8, 80)
	require.NoError(t, err)
	user.SetState(entity.StateProcessing)

	stored, err := repo.Get(ctx, 8, 80)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, stored.State)

	require.NoError(t, repo.Save(ctx, user))
	user.SetState(entity.StateAwaitingPhoto)
	stored, err = repo.Get(ctx, 8, 80)
	require.NoError(t, err)
	require.Equal(t, entity.StateProcessing, stored.State)
}

func TestMemoryUserRepository_UpdateStateUnknownUser(t *testing.T) {
	repo := NewMemoryUserRepository()
	require.ErrorIs(t, repo.UpdateState(context.Background(), 99, entity.StateProcessing), ErrUserNotFound)
}
