package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

// RecalculationQueue accepts challenge ids whose progress is stale.
type RecalculationQueue interface {
	Enqueue(challengeID string)
}

type DailyTaskService struct {
	daily      domain.DailyTaskRepository
	tasks      domain.TaskRepository
	challenges domain.ChallengeRepository
	queue      RecalculationQueue
	clock      Clock
}

func NewDailyTaskService(
	daily domain.DailyTaskRepository,
	tasks domain.TaskRepository,
	challenges domain.ChallengeRepository,
	queue RecalculationQueue,
	clock Clock,
) *DailyTaskService {
	return &DailyTaskService{
		daily:      daily,
		tasks:      tasks,
		challenges: challenges,
		queue:      queue,
		clock:      clock,
	}
}

type CompleteDailyTaskInput struct {
	ID      string
	UserID  string
	Value   *float64
	Version int
}

type LogValueInput struct {
	ID      string
	UserID  string
	Value   float64
	Version int
}

type UpdateNotesInput struct {
	ID      string
	UserID  string
	Notes   string
	Version int
}

func (s *DailyTaskService) ListForDate(ctx context.Context, userID string, date time.Time) ([]*domain.DailyTask, error) {
	return s.daily.ListByDate(ctx, userID, date)
}

func (s *DailyTaskService) Get(ctx context.Context, id, userID string) (*domain.DailyTask, error) {
	dt, err := s.daily.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dt.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return dt, nil
}

func (s *DailyTaskService) GetDelta(ctx context.Context, userID string, since time.Time) ([]*domain.DailyTask, error) {
	return s.daily.GetChanges(ctx, userID, since)
}

// mutate loads an owned daily task, checks the client's version, applies
// fn and persists the result. The parent challenge must still be running.
func (s *DailyTaskService) mutate(ctx context.Context, id, userID string, version int, fn func(*domain.DailyTask) error) (*domain.DailyTask, error) {
	dt, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if version > 0 && dt.Version != version {
		return nil, fmt.Errorf("%w: client v%d vs server v%d", domain.ErrConflict, version, dt.Version)
	}

	c, err := s.challenges.GetByID(ctx, dt.ChallengeID)
	if err != nil {
		return nil, err
	}
	if c.Status.Terminal() {
		return nil, domain.ErrChallengeClosed
	}

	if err := fn(dt); err != nil {
		return nil, err
	}
	if err := s.daily.Update(ctx, dt); err != nil {
		return nil, err
	}

	s.queue.Enqueue(dt.ChallengeID)
	return dt, nil
}

func (s *DailyTaskService) Complete(ctx context.Context, input CompleteDailyTaskInput) (*domain.DailyTask, error) {
	return s.mutate(ctx, input.ID, input.UserID, input.Version, func(dt *domain.DailyTask) error {
		return dt.Complete(input.Value, s.clock.Now())
	})
}

// LogValue records partial progress towards the task's target. Reaching the
// target completes the daily task.
func (s *DailyTaskService) LogValue(ctx context.Context, input LogValueInput) (*domain.DailyTask, error) {
	return s.mutate(ctx, input.ID, input.UserID, input.Version, func(dt *domain.DailyTask) error {
		var target *float64
		task, err := s.tasks.GetByID(ctx, dt.TaskID)
		switch {
		case err == nil:
			target = task.TargetValue
		case errors.Is(err, domain.ErrNotFound):
			// task removed after generation: the value is still recorded
		default:
			return err
		}
		return dt.LogValue(input.Value, target, s.clock.Now())
	})
}

func (s *DailyTaskService) Reset(ctx context.Context, id, userID string, version int) (*domain.DailyTask, error) {
	return s.mutate(ctx, id, userID, version, func(dt *domain.DailyTask) error {
		dt.Reset()
		return nil
	})
}

func (s *DailyTaskService) MarkMissed(ctx context.Context, id, userID string, version int) (*domain.DailyTask, error) {
	return s.mutate(ctx, id, userID, version, (*domain.DailyTask).MarkMissed)
}

func (s *DailyTaskService) MarkFailed(ctx context.Context, id, userID string, version int) (*domain.DailyTask, error) {
	return s.mutate(ctx, id, userID, version, (*domain.DailyTask).MarkFailed)
}

func (s *DailyTaskService) UpdateNotes(ctx context.Context, input UpdateNotesInput) (*domain.DailyTask, error) {
	return s.mutate(ctx, input.ID, input.UserID, input.Version, func(dt *domain.DailyTask) error {
		return dt.SetNotes(input.Notes)
	})
}

// SweepMissed marks every still-open daily task dated before the given day
// as missed. Tasks changed concurrently are left for the next sweep.
func (s *DailyTaskService) SweepMissed(ctx context.Context, before time.Time) (int, error) {
	open, err := s.daily.ListOpenBefore(ctx, "", before)
	if err != nil {
		return 0, fmt.Errorf("list open daily tasks: %w", err)
	}

	var errs []error
	swept := 0
	for _, dt := range open {
		if err := dt.MarkMissed(); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.daily.Update(ctx, dt); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				log.Printf("[SWEEP] Daily task %s changed concurrently, skipping", dt.ID)
				continue
			}
			errs = append(errs, fmt.Errorf("daily task %s: %w", dt.ID, err))
			continue
		}
		swept++
	}

	if swept > 0 {
		log.Printf("[SWEEP] Marked %d daily tasks before %s as missed", swept, domain.DateKey(before))
	}
	return swept, errors.Join(errs...)
}
