package domain_test

import (
	"math"
	"testing"
	"time"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailyTasksFor(c *domain.Challenge, days, completed int) []*domain.DailyTask {
	var out []*domain.DailyTask
	for i := 0; i < days; i++ {
		dt := domain.NewDailyTask(c.Tasks[0], c.UserID, c.StartDate.AddDate(0, 0, i))
		if i < completed {
			_ = dt.Complete(nil, dt.Date.Add(time.Hour))
		}
		out = append(out, dt)
	}
	return out
}

func TestCalculateProgress(t *testing.T) {
	t.Run("No generated tasks gives zero, never NaN", func(t *testing.T) {
		c := runningChallenge(t, 10, domain.FrequencyDaily)

		r := domain.CalculateProgress(c, nil, planStart.AddDate(0, 0, 3))

		assert.Equal(t, 0.0, r.Progress)
		assert.False(t, math.IsNaN(r.Progress))
		assert.Equal(t, 0, r.TotalDue)
		assert.Equal(t, 0.0, r.ConsistencyScore)
		assert.Equal(t, 4, r.DaysElapsed)
	})

	t.Run("Not started challenge reports nothing", func(t *testing.T) {
		c, err := domain.NewChallenge("u1", domain.ChallengeCustom, "Idle", "Idle", 10)
		require.NoError(t, err)

		r := domain.CalculateProgress(c, nil, planStart)
		assert.Equal(t, 0.0, r.Progress)
		assert.Equal(t, 10, r.DaysRemaining)
	})

	t.Run("8 of 10 is exactly 0.8 and completes at end date", func(t *testing.T) {
		c := runningChallenge(t, 10, domain.FrequencyDaily)
		end := *c.EndDate

		r := domain.CalculateProgress(c, dailyTasksFor(c, 10, 8), end)

		assert.Equal(t, 10, r.TotalDue)
		assert.Equal(t, 8, r.Completed)
		assert.Equal(t, 0.8, r.Progress)
		assert.Equal(t, 0, r.DaysRemaining)

		c.ApplyReport(r, end)
		assert.Equal(t, domain.ChallengeCompleted, c.Status)
	})

	t.Run("7 of 10 fails at end date", func(t *testing.T) {
		c := runningChallenge(t, 10, domain.FrequencyDaily)
		end := *c.EndDate

		r := domain.CalculateProgress(c, dailyTasksFor(c, 10, 7), end.AddDate(0, 0, 3))
		assert.InDelta(t, 0.7, r.Progress, 1e-9)

		c.ApplyReport(r, end.AddDate(0, 0, 3))
		assert.Equal(t, domain.ChallengeFailed, c.Status)
	})

	t.Run("Future daily tasks are not yet due", func(t *testing.T) {
		c := runningChallenge(t, 10, domain.FrequencyDaily)
		tasks := dailyTasksFor(c, 10, 2)

		r := domain.CalculateProgress(c, tasks, planStart.AddDate(0, 0, 3))
		assert.Equal(t, 4, r.TotalDue)
		assert.Equal(t, 0.5, r.Progress)
		assert.Equal(t, 50.0, r.ConsistencyScore)
		assert.Equal(t, 7, r.DaysRemaining)
	})

	t.Run("Consistency counts days with at least one completion", func(t *testing.T) {
		c := runningChallenge(t, 10, domain.FrequencyDaily, domain.FrequencyDaily)
		day0a := domain.NewDailyTask(c.Tasks[0], "u1", planStart)
		day0b := domain.NewDailyTask(c.Tasks[1], "u1", planStart)
		day1a := domain.NewDailyTask(c.Tasks[0], "u1", planStart.AddDate(0, 0, 1))
		day1b := domain.NewDailyTask(c.Tasks[1], "u1", planStart.AddDate(0, 0, 1))
		require.NoError(t, day0a.Complete(nil, planStart))

		r := domain.CalculateProgress(c, []*domain.DailyTask{day0a, day0b, day1a, day1b}, planStart.AddDate(0, 0, 1))

		assert.Equal(t, 0.25, r.Progress)
		assert.Equal(t, 50.0, r.ConsistencyScore)
		assert.Equal(t, 1, r.CurrentStreak, "yesterday still keeps the streak alive")
		assert.Equal(t, 1, r.LongestStreak)
	})
}

func TestCalculateStreaks(t *testing.T) {
	today := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	daysAgo := func(n int) time.Time {
		return today.AddDate(0, 0, -n)
	}

	tests := []struct {
		name        string
		days        []time.Time
		wantCurrent int
		wantLongest int
	}{
		{"Empty days", nil, 0, 0},
		{"Single day today", []time.Time{today}, 1, 1},
		{"Single day yesterday (streak still alive)", []time.Time{daysAgo(1)}, 1, 1},
		{"Single day 2 days ago (streak broken)", []time.Time{daysAgo(2)}, 0, 1},
		{"Perfect streak", []time.Time{today, daysAgo(1), daysAgo(2)}, 3, 3},
		{"Gap breaks current", []time.Time{today, daysAgo(1), daysAgo(4)}, 2, 2},
		{"Longest in the past", []time.Time{today, daysAgo(10), daysAgo(11), daysAgo(12)}, 1, 3},
		{"Unsorted input", []time.Time{daysAgo(2), today, daysAgo(1)}, 3, 3},
		{"Duplicates on same day count once", []time.Time{today, today.Add(time.Hour), daysAgo(1)}, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, longest := domain.CalculateStreaks(tt.days, today)
			assert.Equal(t, tt.wantCurrent, current, "Current Streak mismatch")
			assert.Equal(t, tt.wantLongest, longest, "Longest Streak mismatch")
		})
	}
}
