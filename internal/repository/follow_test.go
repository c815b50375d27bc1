package repository

import (
	"context"
	"testing"

	"network/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository_Toggle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()
	alice := mustUser(t, db, "alice")
	bob := mustUser(t, db, "bob")

	state, err := repo.Toggle(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowState{Follow: true, FollowersCount: 1}, state)
	assert.Equal(t, int64(1), reloadUser(t, db, alice.ID).FollowingCount)

	following, err := repo.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	state, err = repo.Toggle(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowState{Follow: false, FollowersCount: 0}, state)
	assert.Zero(t, reloadUser(t, db, alice.ID).FollowingCount)
	assert.Zero(t, reloadUser(t, db, bob.ID).FollowersCount)

	following, err = repo.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestFollowRepository_Rejections(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()
	alice := mustUser(t, db, "alice")

	_, err := repo.Toggle(ctx, alice.ID, alice.ID)
	assert.True(t, models.IsCode(err, models.CodeValidation))

	_, err = repo.Toggle(ctx, alice.ID, 777)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	assert.Zero(t, countRows(t, db, &models.Follow{}, "1 = 1"))
	assert.Zero(t, reloadUser(t, db, alice.ID).FollowingCount)

	following, err := repo.IsFollowing(ctx, 0, alice.ID)
	require.NoError(t, err)
	assert.False(t, following)
}
