package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/stocksync/internal/repository"
)

func TestAPIKeyRepository(t *testing.T) {
	db := NewTestDB(t)
	repo := NewAPIKeyRepository(db)
	ctx := context.Background()

	key := &repository.APIKey{KeyHash: "abc", UserID: "user_1", TenantID: "org_A", Role: repository.RoleMember}
	require.NoError(t, repo.Create(ctx, key))
	require.ErrorIs(t, repo.Create(ctx, key), repository.ErrConflict)

	got, err := repo.GetByHash(ctx, "abc")
	require.NoError(t, err)
	require.Equal(t, "user_1", got.UserID)
	require.Equal(t, repository.RoleMember, got.Role)
	require.Nil(t, got.LastUsed)

	require.NoError(t, repo.Touch(ctx, "abc", time.Now()))
	got, err = repo.GetByHash(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, got.LastUsed)

	_, err = repo.GetByHash(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
