package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/services"
)

type MockDailyJobs struct {
	mock.Mock
}

func (m *MockDailyJobs) GenerateForDate(ctx context.Context, userID string, date time.Time) (*services.GenerationResult, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.GenerationResult), args.Error(1)
}

func (m *MockDailyJobs) SweepMissed(ctx context.Context, before time.Time) (int, error) {
	args := m.Called(ctx, before)
	return args.Int(0), args.Error(1)
}

func (m *MockDailyJobs) RecalculateAll(ctx context.Context, day time.Time) (int, error) {
	args := m.Called(ctx, day)
	return args.Int(0), args.Error(1)
}

func TestScheduler_Tick(t *testing.T) {
	ctx := context.Background()

	t.Run("Runs the rollover once per day in order", func(t *testing.T) {
		jobs := new(MockDailyJobs)
		now := today.Add(8 * time.Hour)
		clock := services.Clock{Now: func() time.Time { return now }, Location: time.UTC}

		var order []string
		jobs.On("GenerateForDate", mock.Anything, "", today).
			Run(func(mock.Arguments) { order = append(order, "generate") }).
			Return(&services.GenerationResult{Date: "2026-03-02", Created: 4}, nil).Once()
		jobs.On("SweepMissed", mock.Anything, today).
			Run(func(mock.Arguments) { order = append(order, "sweep") }).
			Return(2, nil).Once()
		jobs.On("RecalculateAll", mock.Anything, today).
			Run(func(mock.Arguments) { order = append(order, "recalculate") }).
			Return(3, nil).Once()

		s := NewScheduler(jobs, jobs, jobs, clock, time.Minute)

		assert.True(t, s.Tick(ctx))
		assert.False(t, s.Tick(ctx))
		assert.Equal(t, []string{"generate", "sweep", "recalculate"}, order)

		tomorrow := today.AddDate(0, 0, 1)
		now = tomorrow.Add(time.Minute)
		jobs.On("GenerateForDate", mock.Anything, "", tomorrow).Return(&services.GenerationResult{}, nil).Once()
		jobs.On("SweepMissed", mock.Anything, tomorrow).Return(0, nil).Once()
		jobs.On("RecalculateAll", mock.Anything, tomorrow).Return(0, nil).Once()

		assert.True(t, s.Tick(ctx))
		jobs.AssertExpectations(t)
	})

	t.Run("Failed rollover is retried on the next tick", func(t *testing.T) {
		jobs := new(MockDailyJobs)
		clock := services.FixedClock(today.Add(time.Hour))

		jobs.On("GenerateForDate", mock.Anything, "", today).Return(nil, errors.New("db down")).Once()
		jobs.On("GenerateForDate", mock.Anything, "", today).Return(&services.GenerationResult{}, nil).Once()
		jobs.On("SweepMissed", mock.Anything, today).Return(0, nil).Twice()
		jobs.On("RecalculateAll", mock.Anything, today).Return(0, nil).Twice()

		s := NewScheduler(jobs, jobs, jobs, clock, time.Minute)

		assert.True(t, s.Tick(ctx))
		assert.True(t, s.Tick(ctx))
		assert.False(t, s.Tick(ctx))
		jobs.AssertExpectations(t)
	})

	t.Run("RunDay keeps going after a failed step", func(t *testing.T) {
		jobs := new(MockDailyJobs)
		jobs.On("GenerateForDate", mock.Anything, "", today).Return(&services.GenerationResult{}, nil)
		jobs.On("SweepMissed", mock.Anything, today).Return(0, errors.New("sweep failed"))
		jobs.On("RecalculateAll", mock.Anything, today).Return(1, nil)

		s := NewScheduler(jobs, jobs, jobs, services.FixedClock(today), time.Minute)

		err := s.RunDay(ctx, today)
		assert.ErrorContains(t, err, "sweep failed")
		jobs.AssertCalled(t, "RecalculateAll", mock.Anything, today)
	})
}
