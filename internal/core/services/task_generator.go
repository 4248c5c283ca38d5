package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

// generationTimeout bounds a shared run once it no longer follows the
// caller's context.
const generationTimeout = 2 * time.Minute

// GenerationLock excludes other processes from generating the same key.
// TryLock must not block: acquired=false means someone else holds it.
type GenerationLock interface {
	TryLock(ctx context.Context, key string) (unlock func(), acquired bool, err error)
}

type GenerationResult struct {
	Date       string              `json:"date"`
	Created    int                 `json:"created"`
	DailyTasks []*domain.DailyTask `json:"daily_tasks"`
	Skipped    bool                `json:"skipped,omitempty"`
}

type TaskGenerator struct {
	challenges domain.ChallengeRepository
	tasks      domain.TaskRepository
	daily      domain.DailyTaskRepository
	users      domain.UserRepository
	reminders  domain.ReminderScheduler
	lock       GenerationLock
	retry      RetryPolicy
	clock      Clock

	inflight singleflight.Group
}

func NewTaskGenerator(
	challenges domain.ChallengeRepository,
	tasks domain.TaskRepository,
	daily domain.DailyTaskRepository,
	retry RetryPolicy,
	clock Clock,
) *TaskGenerator {
	return &TaskGenerator{
		challenges: challenges,
		tasks:      tasks,
		daily:      daily,
		retry:      retry,
		clock:      clock,
	}
}

// WithReminders schedules a reminder for every new DailyTask whose Task has
// a scheduled time. users resolves each owner's timezone; it may be nil.
func (g *TaskGenerator) WithReminders(reminders domain.ReminderScheduler, users domain.UserRepository) *TaskGenerator {
	g.reminders = reminders
	g.users = users
	return g
}

func (g *TaskGenerator) WithLock(lock GenerationLock) *TaskGenerator {
	g.lock = lock
	return g
}

func generationKey(userID string, day time.Time) string {
	scope := userID
	if scope == "" {
		scope = "all"
	}
	return fmt.Sprintf("generate:%s:%s", scope, domain.DateKey(day))
}

// GenerateForDate makes sure every task due on date of every running
// challenge has exactly one DailyTask. An empty userID covers every user.
// Concurrent calls for the same scope and date share a single run; a caller
// that gives up gets its own ctx error while the run goes on for the rest.
func (g *TaskGenerator) GenerateForDate(ctx context.Context, userID string, date time.Time) (*GenerationResult, error) {
	day := domain.Day(date)
	key := generationKey(userID, day)

	ch := g.inflight.DoChan(key, func() (interface{}, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), generationTimeout)
		defer cancel()
		return g.generate(runCtx, userID, day, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*GenerationResult), nil
	}
}

// GenerateToday runs GenerateForDate for the clock's current day.
func (g *TaskGenerator) GenerateToday(ctx context.Context, userID string) (*GenerationResult, error) {
	return g.GenerateForDate(ctx, userID, g.clock.Today())
}

func (g *TaskGenerator) generate(ctx context.Context, userID string, day time.Time, key string) (*GenerationResult, error) {
	result := &GenerationResult{Date: domain.DateKey(day), DailyTasks: []*domain.DailyTask{}}

	if g.lock != nil {
		unlock, acquired, err := g.lock.TryLock(ctx, key)
		switch {
		case err != nil:
			log.Printf("[GENERATOR] Lock unavailable for %s, relying on store constraints: %v", key, err)
		case !acquired:
			log.Printf("[GENERATOR] %s already running elsewhere, skipping", key)
			result.Skipped = true
			return result, nil
		default:
			defer unlock()
		}
	}

	var challenges []*domain.Challenge
	var planned []*domain.DailyTask

	err := g.retry.Do(ctx, "generate "+key, func() error {
		var err error
		challenges, err = g.loadRunning(ctx, userID)
		if err != nil {
			return err
		}

		existing, err := g.daily.ListByDate(ctx, userID, day)
		if err != nil {
			return err
		}

		planned = domain.PlanDailyTasks(challenges, existing, day)
		if len(planned) == 0 {
			return nil
		}

		result.Created, err = g.daily.CreateBatch(ctx, planned)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("generate daily tasks for %s: %w", result.Date, err)
	}

	if len(planned) > 0 {
		result.DailyTasks = planned
		log.Printf("[GENERATOR] Created %d daily tasks for %s", result.Created, key)
		g.scheduleReminders(ctx, challenges, planned)
	}

	return result, nil
}

func (g *TaskGenerator) loadRunning(ctx context.Context, userID string) ([]*domain.Challenge, error) {
	challenges, err := g.challenges.ListInProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(challenges) == 0 {
		return challenges, nil
	}

	ids := make([]string, 0, len(challenges))
	for _, c := range challenges {
		ids = append(ids, c.ID)
	}

	byChallenge, err := g.tasks.ListByChallengeIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range challenges {
		c.Tasks = byChallenge[c.ID]
	}
	return challenges, nil
}

func (g *TaskGenerator) scheduleReminders(ctx context.Context, challenges []*domain.Challenge, planned []*domain.DailyTask) {
	if g.reminders == nil {
		return
	}

	tasks := make(map[string]*domain.Task)
	for _, c := range challenges {
		for _, t := range c.Tasks {
			tasks[t.ID] = t
		}
	}

	locations := make(map[string]*time.Location)
	var reminders []domain.Reminder

	for _, dt := range planned {
		task, ok := tasks[dt.TaskID]
		if !ok {
			continue
		}

		at, ok := task.ReminderAt(dt.Date, g.location(ctx, dt.UserID, locations))
		if !ok {
			continue
		}

		reminders = append(reminders, domain.Reminder{
			UserID:      dt.UserID,
			ChallengeID: dt.ChallengeID,
			DailyTaskID: dt.ID,
			TaskName:    task.Name,
			At:          at,
		})
	}

	if len(reminders) == 0 {
		return
	}
	if err := g.reminders.Schedule(ctx, reminders...); err != nil {
		log.Printf("[GENERATOR] Failed to schedule %d reminders: %v", len(reminders), err)
	}
}

func (g *TaskGenerator) location(ctx context.Context, userID string, cache map[string]*time.Location) *time.Location {
	if loc, ok := cache[userID]; ok {
		return loc
	}

	loc := g.clock.Location
	if g.users != nil {
		if u, err := g.users.GetByID(ctx, userID); err == nil {
			loc = u.Location()
		}
	}
	cache[userID] = loc
	return loc
}
