package workers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/services"
)

type Generator interface {
	GenerateForDate(ctx context.Context, userID string, date time.Time) (*services.GenerationResult, error)
}

type Sweeper interface {
	SweepMissed(ctx context.Context, before time.Time) (int, error)
}

type BatchRecalculator interface {
	RecalculateAll(ctx context.Context, today time.Time) (int, error)
}

// Scheduler runs the daily rollover: generate the new day's tasks for every
// user, mark the previous days' open tasks as missed, then recalculate every
// running challenge. It checks for a new day on every tick.
type Scheduler struct {
	generator Generator
	sweeper   Sweeper
	progress  BatchRecalculator
	clock     services.Clock
	interval  time.Duration

	mu      sync.Mutex
	lastDay time.Time
}

func NewScheduler(generator Generator, sweeper Sweeper, progress BatchRecalculator, clock services.Clock, interval time.Duration) *Scheduler {
	return &Scheduler{
		generator: generator,
		sweeper:   sweeper,
		progress:  progress,
		clock:     clock,
		interval:  interval,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		log.Printf("[SCHEDULER] Started, checking every %s", s.interval)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.Tick(ctx)
		for {
			select {
			case <-ticker.C:
				s.Tick(ctx)
			case <-ctx.Done():
				log.Println("[SCHEDULER] Shutting down...")
				return
			}
		}
	}()
}

// Tick runs the rollover once per calendar day and reports whether it ran.
// A failed rollover is attempted again on the next tick.
func (s *Scheduler) Tick(ctx context.Context) bool {
	today := s.clock.Today()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastDay.Equal(today) {
		return false
	}

	if err := s.RunDay(ctx, today); err != nil {
		log.Printf("[SCHEDULER] Rollover for %s incomplete: %v", domain.DateKey(today), err)
		return true
	}
	s.lastDay = today
	return true
}

// RunDay performs every rollover step for today. Later steps still run
// when an earlier one fails.
func (s *Scheduler) RunDay(ctx context.Context, today time.Time) error {
	var errs []error

	res, err := s.generator.GenerateForDate(ctx, "", today)
	if err != nil {
		errs = append(errs, fmt.Errorf("generate: %w", err))
	} else {
		log.Printf("[SCHEDULER] %s: %d daily tasks created", res.Date, res.Created)
	}

	swept, err := s.sweeper.SweepMissed(ctx, today)
	if err != nil {
		errs = append(errs, fmt.Errorf("sweep: %w", err))
	}

	recalculated, err := s.progress.RecalculateAll(ctx, today)
	if err != nil {
		errs = append(errs, fmt.Errorf("recalculate: %w", err))
	}

	log.Printf("[SCHEDULER] %s: %d missed, %d challenges recalculated", domain.DateKey(today), swept, recalculated)
	return errors.Join(errs...)
}
