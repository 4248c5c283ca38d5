package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDailyTask() *domain.DailyTask {
	task := &domain.Task{ID: "t1", ChallengeID: "c1"}
	return domain.NewDailyTask(task, "u1", time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC))
}

func TestNewDailyTask(t *testing.T) {
	dt := newTestDailyTask()

	assert.Equal(t, domain.DailyNotStarted, dt.Status)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), dt.Date)
	assert.Equal(t, "t1@2024-01-02", dt.Key())
	assert.Equal(t, 1, dt.Version)
	assert.NoError(t, dt.Validate())
}

func TestDailyTask_Transitions(t *testing.T) {
	now := time.Date(2024, 1, 2, 20, 0, 0, 0, time.UTC)

	t.Run("Complete records timestamp and value", func(t *testing.T) {
		dt := newTestDailyTask()
		require.NoError(t, dt.Complete(ptr(12.0), now))

		assert.Equal(t, domain.DailyCompleted, dt.Status)
		assert.Equal(t, now, *dt.CompletedAt)
		assert.Equal(t, 12.0, *dt.ActualValue)
		assert.NoError(t, dt.Validate())
	})

	t.Run("Complete rejects negative value", func(t *testing.T) {
		dt := newTestDailyTask()
		assert.ErrorIs(t, dt.Complete(ptr(-2.0), now), domain.ErrValidation)
		assert.Equal(t, domain.DailyNotStarted, dt.Status)
	})

	t.Run("LogValue below target is in progress, reaching it completes", func(t *testing.T) {
		dt := newTestDailyTask()
		target := 10.0

		require.NoError(t, dt.LogValue(4, &target, now))
		assert.Equal(t, domain.DailyInProgress, dt.Status)
		assert.Nil(t, dt.CompletedAt)

		require.NoError(t, dt.LogValue(10, &target, now))
		assert.Equal(t, domain.DailyCompleted, dt.Status)
		assert.NotNil(t, dt.CompletedAt)
	})

	t.Run("LogValue on a closed task is rejected", func(t *testing.T) {
		dt := newTestDailyTask()
		require.NoError(t, dt.MarkMissed())
		assert.ErrorIs(t, dt.LogValue(1, nil, now), domain.ErrInvalidTransition)
	})

	t.Run("Reset clears completion", func(t *testing.T) {
		dt := newTestDailyTask()
		require.NoError(t, dt.Complete(ptr(3.0), now))

		dt.Reset()
		assert.Equal(t, domain.DailyNotStarted, dt.Status)
		assert.Nil(t, dt.CompletedAt)
		assert.Nil(t, dt.ActualValue)
	})

	t.Run("Completed tasks cannot be missed or failed", func(t *testing.T) {
		dt := newTestDailyTask()
		require.NoError(t, dt.Complete(nil, now))

		assert.ErrorIs(t, dt.MarkMissed(), domain.ErrInvalidTransition)
		assert.ErrorIs(t, dt.MarkFailed(), domain.ErrInvalidTransition)
	})

	t.Run("Notes are trimmed and bounded", func(t *testing.T) {
		dt := newTestDailyTask()
		require.NoError(t, dt.SetNotes("  felt great  "))
		assert.Equal(t, "felt great", *dt.Notes)

		require.NoError(t, dt.SetNotes("   "))
		assert.Nil(t, dt.Notes)

		require.NoError(t, dt.SetNotes("keep me"))
		before := dt.UpdatedAt
		assert.ErrorIs(t, dt.SetNotes(strings.Repeat("x", domain.MaxNotesLen+1)), domain.ErrValidation)
		require.NotNil(t, dt.Notes)
		assert.Equal(t, "keep me", *dt.Notes, "a rejected value is not applied")
		assert.Equal(t, before, dt.UpdatedAt)
	})
}
