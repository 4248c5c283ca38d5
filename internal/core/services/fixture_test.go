package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/adapters/cache"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/templates"
)

// Monday.
var day1 = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

type recordingQueue struct {
	mu  sync.Mutex
	ids []string
}

func (q *recordingQueue) Enqueue(challengeID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, challengeID)
}

func (q *recordingQueue) IDs() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.ids...)
}

type fixture struct {
	mu  sync.Mutex
	now time.Time

	store      *repository.MemoryStore
	clock      Clock
	queue      *recordingQueue
	reminders  *cache.MemoryReminderQueue
	generator  *TaskGenerator
	challenges *ChallengeService
	daily      *DailyTaskService
	progress   *ProgressService
	photos     *PhotoService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	registry, err := templates.Default()
	require.NoError(t, err)

	f := &fixture{
		now:       day1,
		store:     repository.NewMemoryStore(),
		queue:     &recordingQueue{},
		reminders: cache.NewMemoryReminderQueue(),
	}
	f.clock = Clock{Now: f.Now, Location: time.UTC}

	s := f.store
	f.generator = NewTaskGenerator(s.Challenges(), s.Tasks(), s.DailyTasks(), fastRetry, f.clock).
		WithReminders(f.reminders, s.Users())
	f.challenges = NewChallengeService(s.Challenges(), s.Tasks(), registry, f.generator, f.clock)
	f.daily = NewDailyTaskService(s.DailyTasks(), s.Tasks(), s.Challenges(), f.queue, f.clock)
	f.progress = NewProgressService(s.Challenges(), s.DailyTasks(), fastRetry, f.clock)
	f.photos = NewPhotoService(s.Photos(), s.Challenges(), s.DailyTasks(), f.clock)
	return f
}

func (f *fixture) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// advance moves the clock forward by n calendar days.
func (f *fixture) advance(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.AddDate(0, 0, n)
}

func dailyTask(name string) TaskInput {
	return TaskInput{
		Name:        name,
		Description: name + " every day",
		Type:        string(domain.TaskCustom),
		Frequency:   string(domain.FrequencyDaily),
	}
}

// started creates and starts a custom challenge owned by userID.
func (f *fixture) started(t *testing.T, userID string, duration int, tasks ...TaskInput) *domain.Challenge {
	t.Helper()
	ctx := context.Background()

	if len(tasks) == 0 {
		tasks = []TaskInput{dailyTask("Walk"), dailyTask("Read")}
	}

	c, err := f.challenges.Create(ctx, CreateChallengeInput{
		UserID:       userID,
		Name:         "Spring reset",
		Description:  "Small daily habits",
		DurationDays: duration,
		Tasks:        tasks,
	})
	require.NoError(t, err)

	c, err = f.challenges.Start(ctx, c.ID, userID)
	require.NoError(t, err)
	return c
}

func (f *fixture) today(t *testing.T, userID string) []*domain.DailyTask {
	t.Helper()
	list, err := f.daily.ListForDate(context.Background(), userID, f.clock.Today())
	require.NoError(t, err)
	return list
}
