package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCachedRepo(t *testing.T) (*CachedChallengeRepository, *MemoryStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewMemoryStore()
	return NewCachedChallengeRepository(store.Challenges(), client), store, mr
}

func TestCachedChallengeRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("List populates the cache and serves from it", func(t *testing.T) {
		repo, store, mr := setupCachedRepo(t)
		userID := uuid.NewString()

		c := newChallengeWithTasks(t, userID, 0)
		require.NoError(t, repo.Create(ctx, c))

		list, err := repo.ListByUserID(ctx, userID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.True(t, mr.Exists("challenges:"+userID))

		// a write behind the decorator's back is invisible until invalidation
		require.NoError(t, store.Challenges().Delete(ctx, c.ID))

		cached, err := repo.ListByUserID(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, cached, 1)
	})

	t.Run("Writes invalidate the user's entry", func(t *testing.T) {
		repo, _, mr := setupCachedRepo(t)
		userID := uuid.NewString()

		c := newChallengeWithTasks(t, userID, 0)
		require.NoError(t, repo.Create(ctx, c))
		_, err := repo.ListByUserID(ctx, userID)
		require.NoError(t, err)

		require.NoError(t, c.Update("Renamed", c.Description, c.DurationDays))
		require.NoError(t, repo.Update(ctx, c))
		assert.False(t, mr.Exists("challenges:"+userID))

		list, err := repo.ListByUserID(ctx, userID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Renamed", list[0].Name)

		require.NoError(t, repo.Delete(ctx, c.ID))
		assert.False(t, mr.Exists("challenges:"+userID))

		list, err = repo.ListByUserID(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("Corrupted entries fall back to the store", func(t *testing.T) {
		repo, _, mr := setupCachedRepo(t)
		userID := uuid.NewString()

		require.NoError(t, repo.Create(ctx, newChallengeWithTasks(t, userID, 0)))
		require.NoError(t, mr.Set("challenges:"+userID, "{not json"))

		list, err := repo.ListByUserID(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("Redis outage degrades to the store", func(t *testing.T) {
		repo, _, mr := setupCachedRepo(t)
		userID := uuid.NewString()
		require.NoError(t, repo.Create(ctx, newChallengeWithTasks(t, userID, 0)))

		mr.Close()

		list, err := repo.ListByUserID(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}
