package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

type ProgressService struct {
	challenges domain.ChallengeRepository
	daily      domain.DailyTaskRepository
	retry      RetryPolicy
	clock      Clock
}

func NewProgressService(challenges domain.ChallengeRepository, daily domain.DailyTaskRepository, retry RetryPolicy, clock Clock) *ProgressService {
	return &ProgressService{
		challenges: challenges,
		daily:      daily,
		retry:      retry,
		clock:      clock,
	}
}

func (s *ProgressService) report(ctx context.Context, c *domain.Challenge, today time.Time) (domain.ProgressReport, error) {
	if c.StartDate == nil {
		return domain.CalculateProgress(c, nil, today), nil
	}

	to := domain.Day(today)
	if last, ok := c.LastDay(); ok && last.Before(to) {
		to = last
	}

	dailyTasks, err := s.daily.ListByChallengeID(ctx, c.ID, *c.StartDate, to)
	if err != nil {
		return domain.ProgressReport{}, err
	}
	return domain.CalculateProgress(c, dailyTasks, today), nil
}

// Recalculate recomputes a challenge's progress as of today and persists
// it, settling the challenge as completed or failed once its end date has
// passed. A concurrent write is retried from a fresh read.
func (s *ProgressService) Recalculate(ctx context.Context, challengeID string, today time.Time) (*domain.ProgressReport, error) {
	var report domain.ProgressReport

	err := s.retry.Do(ctx, "recalculate "+challengeID, func() error {
		c, err := s.challenges.GetByID(ctx, challengeID)
		if err != nil {
			return err
		}

		report, err = s.report(ctx, c, today)
		if err != nil {
			return err
		}

		if !c.ApplyReport(report, today) {
			return nil
		}
		if err := s.challenges.Update(ctx, c); err != nil {
			return err
		}

		if c.Status != report.Status {
			log.Printf("[PROGRESS] Challenge %s settled as %s (progress %.2f)", c.ID, c.Status, c.Progress)
		}
		report.Status = c.Status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// RecalculateAll walks every running challenge. It keeps going past
// individual failures and reports them together.
func (s *ProgressService) RecalculateAll(ctx context.Context, today time.Time) (int, error) {
	challenges, err := s.challenges.ListInProgress(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("list running challenges: %w", err)
	}

	var errs []error
	done := 0
	for _, c := range challenges {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := s.Recalculate(ctx, c.ID, today); err != nil {
			errs = append(errs, fmt.Errorf("challenge %s: %w", c.ID, err))
			continue
		}
		done++
	}

	return done, errors.Join(errs...)
}

// GetReport computes the current metrics of a user's challenge without
// writing anything.
func (s *ProgressService) GetReport(ctx context.Context, challengeID, userID string) (*domain.ProgressReport, error) {
	c, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, domain.ErrUnauthorized
	}

	report, err := s.report(ctx, c, s.clock.Today())
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// RecalculateNow is Recalculate for the clock's current day, with an
// ownership check.
func (s *ProgressService) RecalculateNow(ctx context.Context, challengeID, userID string) (*domain.ProgressReport, error) {
	c, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return s.Recalculate(ctx, challengeID, s.clock.Today())
}

func (s *ProgressService) Today() time.Time {
	return s.clock.Today()
}
