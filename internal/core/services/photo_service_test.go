package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

func TestPhotoService(t *testing.T) {
	ctx := context.Background()

	t.Run("Log defaults to today and lists by challenge", func(t *testing.T) {
		f := newFixture(t)
		c := f.started(t, "user-1", 10)

		p, err := f.photos.Log(ctx, LogPhotoInput{UserID: "user-1", ChallengeID: c.ID, StorageKey: "photos/day1.jpg", Caption: " day one "})
		require.NoError(t, err)
		assert.Equal(t, "2026-03-02", domain.DateKey(p.TakenOn))
		assert.Equal(t, "day one", p.Caption)
		assert.Nil(t, p.DailyTaskID)

		list, err := f.photos.List(ctx, c.ID, "user-1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, p.ID, list[0].ID)
	})

	t.Run("Linked daily task sets the day", func(t *testing.T) {
		f := newFixture(t)
		c := f.started(t, "user-1", 10)
		dt := f.today(t, "user-1")[0]
		f.advance(1)

		p, err := f.photos.Log(ctx, LogPhotoInput{UserID: "user-1", ChallengeID: c.ID, DailyTaskID: &dt.ID, StorageKey: "k"})
		require.NoError(t, err)
		assert.Equal(t, "2026-03-02", domain.DateKey(p.TakenOn))
		require.NotNil(t, p.DailyTaskID)
		assert.Equal(t, dt.ID, *p.DailyTaskID)
	})

	t.Run("Fail: Daily task of another challenge", func(t *testing.T) {
		f := newFixture(t)
		a := f.started(t, "user-1", 10)
		f.started(t, "user-2", 10)
		foreign := f.today(t, "user-2")[0]

		_, err := f.photos.Log(ctx, LogPhotoInput{UserID: "user-1", ChallengeID: a.ID, DailyTaskID: &foreign.ID, StorageKey: "k"})

		verr, ok := domain.ValidationErrorOf(err)
		require.True(t, ok)
		assert.True(t, verr.Has("daily_task_id", domain.RuleReference))
	})

	t.Run("Fail: Missing storage key", func(t *testing.T) {
		f := newFixture(t)
		c := f.started(t, "user-1", 10)

		_, err := f.photos.Log(ctx, LogPhotoInput{UserID: "user-1", ChallengeID: c.ID})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Delete is owner only and soft", func(t *testing.T) {
		f := newFixture(t)
		c := f.started(t, "user-1", 10)
		p, err := f.photos.Log(ctx, LogPhotoInput{UserID: "user-1", ChallengeID: c.ID, StorageKey: "k"})
		require.NoError(t, err)

		assert.ErrorIs(t, f.photos.Delete(ctx, p.ID, "intruder"), domain.ErrUnauthorized)
		require.NoError(t, f.photos.Delete(ctx, p.ID, "user-1"))

		list, err := f.photos.List(ctx, c.ID, "user-1")
		require.NoError(t, err)
		assert.Empty(t, list)

		raw, err := f.store.Photos().GetRawByID(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, raw.IsDeleted)
	})

	t.Run("Fail: Another user's challenge", func(t *testing.T) {
		f := newFixture(t)
		c := f.started(t, "user-1", 10)

		_, err := f.photos.List(ctx, c.ID, "intruder")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)

		_, err = f.photos.Log(ctx, LogPhotoInput{UserID: "intruder", ChallengeID: c.ID, StorageKey: "k"})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
