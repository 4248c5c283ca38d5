package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

// completeAll completes every daily task of userID dated today.
func (f *fixture) completeAll(t *testing.T, userID string) {
	t.Helper()
	for _, dt := range f.today(t, userID) {
		_, err := f.daily.Complete(context.Background(), CompleteDailyTaskInput{ID: dt.ID, UserID: userID})
		require.NoError(t, err)
	}
}

// nextDay moves the clock forward and generates the new day's tasks.
func (f *fixture) nextDay(t *testing.T) {
	t.Helper()
	f.advance(1)
	_, err := f.generator.GenerateToday(context.Background(), "")
	require.NoError(t, err)
}

func TestProgressService_Recalculate(t *testing.T) {
	ctx := context.Background()

	t.Run("Computes progress, consistency and streaks", func(t *testing.T) {
		f := newFixture(t)
		c := f.started(t, "user-1", 4)

		f.completeAll(t, "user-1")
		f.nextDay(t)

		first := f.today(t, "user-1")[0]
		_, err := f.daily.Complete(ctx, CompleteDailyTaskInput{ID: first.ID, UserID: "user-1"})
		require.NoError(t, err)

		report, err := f.progress.Recalculate(ctx, c.ID, f.clock.Today())
		require.NoError(t, err)

		assert.Equal(t, 4, report.TotalDue)
		assert.Equal(t, 3, report.Completed)
		assert.InDelta(t, 0.75, report.Progress, 1e-9)
		assert.InDelta(t, 100.0, report.ConsistencyScore, 1e-9)
		assert.Equal(t, 2, report.CurrentStreak)
		assert.Equal(t, 2, report.LongestStreak)
		assert.Equal(t, 2, report.DaysElapsed)
		assert.Equal(t, 3, report.DaysRemaining)
		assert.Equal(t, domain.ChallengeInProgress, report.Status)

		stored, err := f.store.Challenges().GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.InDelta(t, 0.75, stored.Progress, 1e-9)
	})

	t.Run("Settles as completed above the threshold", func(t *testing.T) {
		f := newFixture(t)
		c := f.started(t, "user-1", 2)

		f.completeAll(t, "user-1")
		f.nextDay(t)
		f.completeAll(t, "user-1")
		f.advance(1)

		report, err := f.progress.Recalculate(ctx, c.ID, f.clock.Today())
		require.NoError(t, err)
		assert.Equal(t, domain.ChallengeCompleted, report.Status)
		assert.Equal(t, 1.0, report.Progress)
		assert.Zero(t, report.DaysRemaining)
	})

	t.Run("Settles as failed below the threshold", func(t *testing.T) {
		f := newFixture(t)
		c := f.started(t, "user-1", 2)

		f.nextDay(t)
		f.completeAll(t, "user-1")
		f.advance(1)

		report, err := f.progress.Recalculate(ctx, c.ID, f.clock.Today())
		require.NoError(t, err)
		assert.Equal(t, domain.ChallengeFailed, report.Status)
		assert.InDelta(t, 0.5, report.Progress, 1e-9)

		stored, err := f.store.Challenges().GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.ChallengeFailed, stored.Status)
	})

	t.Run("Finished challenges are left alone", func(t *testing.T) {
		f := newFixture(t)
		c := f.started(t, "user-1", 5)
		_, err := f.challenges.Complete(ctx, c.ID, "user-1")
		require.NoError(t, err)

		report, err := f.progress.Recalculate(ctx, c.ID, f.clock.Today())
		require.NoError(t, err)
		assert.Equal(t, domain.ChallengeCompleted, report.Status)

		stored, err := f.store.Challenges().GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 1.0, stored.Progress)
	})

	t.Run("Fail: Unknown challenge", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.progress.Recalculate(ctx, "missing", f.clock.Today())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestProgressService_RecalculateAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.started(t, "user-a", 10)
	f.started(t, "user-b", 10)
	f.completeAll(t, "user-a")

	n, err := f.progress.RecalculateAll(ctx, f.clock.Today())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := f.store.Challenges().ListByUserID(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1.0, list[0].Progress)
}

func TestProgressService_GetReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.started(t, "user-1", 10)

	report, err := f.progress.GetReport(ctx, c.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalDue)
	assert.Equal(t, "2026-03-02", report.AsOf)

	_, err = f.progress.GetReport(ctx, c.ID, "intruder")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.progress.RecalculateNow(ctx, c.ID, "intruder")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	report, err = f.progress.RecalculateNow(ctx, c.ID, "user-1")
	require.NoError(t, err)
	assert.Zero(t, report.Progress)
}
