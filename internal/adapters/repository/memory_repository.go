package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

// MemoryStore keeps every table in process memory behind one lock, so a
// multi-table write (challenge + tasks, daily task batch) is atomic.
type MemoryStore struct {
	mu         sync.RWMutex
	challenges map[string]*domain.Challenge
	tasks      map[string]*domain.Task
	dailyTasks map[string]*domain.DailyTask
	dailyKeys  map[string]string
	photos     map[string]*domain.Photo
	users      map[string]*domain.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		challenges: make(map[string]*domain.Challenge),
		tasks:      make(map[string]*domain.Task),
		dailyTasks: make(map[string]*domain.DailyTask),
		dailyKeys:  make(map[string]string),
		photos:     make(map[string]*domain.Photo),
		users:      make(map[string]*domain.User),
	}
}

func (s *MemoryStore) Challenges() *InMemoryChallengeRepository {
	return &InMemoryChallengeRepository{s: s}
}

func (s *MemoryStore) Tasks() *InMemoryTaskRepository {
	return &InMemoryTaskRepository{s: s}
}

func (s *MemoryStore) DailyTasks() *InMemoryDailyTaskRepository {
	return &InMemoryDailyTaskRepository{s: s}
}

func (s *MemoryStore) Photos() *InMemoryPhotoRepository {
	return &InMemoryPhotoRepository{s: s}
}

func (s *MemoryStore) Users() *InMemoryUserRepository {
	return &InMemoryUserRepository{s: s}
}

func cloneChallenge(c *domain.Challenge) *domain.Challenge {
	clone := *c
	clone.Tasks = nil
	return &clone
}

func cloneTask(t *domain.Task) *domain.Task {
	clone := *t
	return &clone
}

func cloneDailyTask(d *domain.DailyTask) *domain.DailyTask {
	clone := *d
	return &clone
}

// --- challenges ---

var _ domain.ChallengeRepository = (*InMemoryChallengeRepository)(nil)

type InMemoryChallengeRepository struct {
	s *MemoryStore
}

func (r *InMemoryChallengeRepository) Create(ctx context.Context, c *domain.Challenge) error {
	if err := c.Validate(); err != nil {
		return err
	}
	for _, t := range c.Tasks {
		if err := t.Validate(); err != nil {
			return err
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if c.Version == 0 {
		c.Version = 1
	}
	r.s.challenges[c.ID] = cloneChallenge(c)
	for _, t := range c.Tasks {
		r.s.tasks[t.ID] = cloneTask(t)
	}
	return nil
}

func (r *InMemoryChallengeRepository) GetByID(ctx context.Context, id string) (*domain.Challenge, error) {
	c, err := r.GetRawByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted {
		return nil, domain.NewNotFound("challenge", id)
	}
	return c, nil
}

func (r *InMemoryChallengeRepository) GetRawByID(ctx context.Context, id string) (*domain.Challenge, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.challenges[id]
	if !ok {
		return nil, domain.NewNotFound("challenge", id)
	}
	return cloneChallenge(c), nil
}

func (r *InMemoryChallengeRepository) list(match func(*domain.Challenge) bool) []*domain.Challenge {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := []*domain.Challenge{}
	for _, c := range r.s.challenges {
		if match(c) {
			list = append(list, cloneChallenge(c))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

func (r *InMemoryChallengeRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Challenge, error) {
	return r.list(func(c *domain.Challenge) bool {
		return c.UserID == userID && !c.IsDeleted
	}), nil
}

func (r *InMemoryChallengeRepository) ListInProgress(ctx context.Context, userID string) ([]*domain.Challenge, error) {
	return r.list(func(c *domain.Challenge) bool {
		return (userID == "" || c.UserID == userID) && !c.IsDeleted && c.Status == domain.ChallengeInProgress
	}), nil
}

func (r *InMemoryChallengeRepository) Update(ctx context.Context, c *domain.Challenge) error {
	if err := c.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.challenges[c.ID]
	if !ok || existing.IsDeleted {
		return domain.NewNotFound("challenge", c.ID)
	}
	if existing.Version != c.Version {
		return domain.ErrConflict
	}

	c.Version++
	r.s.challenges[c.ID] = cloneChallenge(c)
	return nil
}

func (r *InMemoryChallengeRepository) Stop(ctx context.Context, c *domain.Challenge) error {
	if err := c.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.challenges[c.ID]
	if !ok || existing.IsDeleted {
		return domain.NewNotFound("challenge", c.ID)
	}
	if existing.Version != c.Version {
		return domain.ErrConflict
	}

	c.Version++
	r.s.challenges[c.ID] = cloneChallenge(c)
	r.s.deleteDailyTasks(c.ID)
	return nil
}

func (r *InMemoryChallengeRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.challenges[id]
	if !ok || c.IsDeleted {
		return domain.NewNotFound("challenge", id)
	}
	c.SoftDelete()
	c.Version++
	return nil
}

func (r *InMemoryChallengeRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Challenge, error) {
	list := r.list(func(c *domain.Challenge) bool {
		return c.UserID == userID && c.UpdatedAt.After(since)
	})
	sort.Slice(list, func(i, j int) bool {
		return list[i].UpdatedAt.Before(list[j].UpdatedAt)
	})
	return list, nil
}

// --- tasks ---

var _ domain.TaskRepository = (*InMemoryTaskRepository)(nil)

type InMemoryTaskRepository struct {
	s *MemoryStore
}

func (r *InMemoryTaskRepository) Create(ctx context.Context, t *domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.challenges[t.ChallengeID]; !ok {
		return domain.NewNotFound("challenge", t.ChallengeID)
	}
	r.s.tasks[t.ID] = cloneTask(t)
	return nil
}

func (r *InMemoryTaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok || t.IsDeleted {
		return nil, domain.NewNotFound("task", id)
	}
	return cloneTask(t), nil
}

func (r *InMemoryTaskRepository) ListByChallengeIDs(ctx context.Context, challengeIDs []string) (map[string][]*domain.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	wanted := make(map[string]bool, len(challengeIDs))
	for _, id := range challengeIDs {
		wanted[id] = true
	}

	out := make(map[string][]*domain.Task)
	for _, t := range r.s.tasks {
		if wanted[t.ChallengeID] && !t.IsDeleted {
			out[t.ChallengeID] = append(out[t.ChallengeID], cloneTask(t))
		}
	}
	for _, list := range out {
		sort.Slice(list, func(i, j int) bool {
			return list[i].Position < list[j].Position
		})
	}
	return out, nil
}

func (r *InMemoryTaskRepository) Update(ctx context.Context, t *domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.tasks[t.ID]
	if !ok || existing.IsDeleted {
		return domain.NewNotFound("task", t.ID)
	}
	r.s.tasks[t.ID] = cloneTask(t)
	return nil
}

func (r *InMemoryTaskRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok || t.IsDeleted {
		return domain.NewNotFound("task", id)
	}
	t.SoftDelete()
	return nil
}

// --- daily tasks ---

var _ domain.DailyTaskRepository = (*InMemoryDailyTaskRepository)(nil)

type InMemoryDailyTaskRepository struct {
	s *MemoryStore
}

func (r *InMemoryDailyTaskRepository) CreateBatch(ctx context.Context, tasks []*domain.DailyTask) (int, error) {
	for _, dt := range tasks {
		if err := dt.Validate(); err != nil {
			return 0, err
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	inserted := 0
	for _, dt := range tasks {
		key := dt.Key()
		if _, exists := r.s.dailyKeys[key]; exists {
			continue
		}
		r.s.dailyKeys[key] = dt.ID
		r.s.dailyTasks[dt.ID] = cloneDailyTask(dt)
		inserted++
	}
	return inserted, nil
}

func (r *InMemoryDailyTaskRepository) GetByID(ctx context.Context, id string) (*domain.DailyTask, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	dt, ok := r.s.dailyTasks[id]
	if !ok {
		return nil, domain.NewNotFound("daily task", id)
	}
	return cloneDailyTask(dt), nil
}

func (r *InMemoryDailyTaskRepository) list(match func(*domain.DailyTask) bool) []*domain.DailyTask {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := []*domain.DailyTask{}
	for _, dt := range r.s.dailyTasks {
		if match(dt) {
			list = append(list, cloneDailyTask(dt))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

func (r *InMemoryDailyTaskRepository) ListByDate(ctx context.Context, userID string, date time.Time) ([]*domain.DailyTask, error) {
	day := domain.Day(date)
	return r.list(func(dt *domain.DailyTask) bool {
		return (userID == "" || dt.UserID == userID) && dt.Date.Equal(day)
	}), nil
}

func (r *InMemoryDailyTaskRepository) ListByChallengeID(ctx context.Context, challengeID string, from, to time.Time) ([]*domain.DailyTask, error) {
	return r.list(func(dt *domain.DailyTask) bool {
		return dt.ChallengeID == challengeID && !dt.Date.Before(from) && !dt.Date.After(to)
	}), nil
}

func (r *InMemoryDailyTaskRepository) ListOpenBefore(ctx context.Context, userID string, date time.Time) ([]*domain.DailyTask, error) {
	day := domain.Day(date)
	return r.list(func(dt *domain.DailyTask) bool {
		return (userID == "" || dt.UserID == userID) && dt.Date.Before(day) && dt.Status.Open()
	}), nil
}

func (r *InMemoryDailyTaskRepository) Update(ctx context.Context, dt *domain.DailyTask) error {
	if err := dt.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.dailyTasks[dt.ID]
	if !ok {
		return domain.NewNotFound("daily task", dt.ID)
	}
	if existing.Version != dt.Version {
		return domain.ErrConflict
	}

	dt.Version++
	r.s.dailyTasks[dt.ID] = cloneDailyTask(dt)
	return nil
}

// deleteDailyTasks expects the write lock to be held.
func (s *MemoryStore) deleteDailyTasks(challengeID string) {
	for id, dt := range s.dailyTasks {
		if dt.ChallengeID == challengeID {
			delete(s.dailyKeys, dt.Key())
			delete(s.dailyTasks, id)
		}
	}
}

func (r *InMemoryDailyTaskRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.DailyTask, error) {
	list := r.list(func(dt *domain.DailyTask) bool {
		return dt.UserID == userID && dt.UpdatedAt.After(since)
	})
	sort.Slice(list, func(i, j int) bool {
		return list[i].UpdatedAt.Before(list[j].UpdatedAt)
	})
	return list, nil
}

// --- photos ---

var _ domain.PhotoRepository = (*InMemoryPhotoRepository)(nil)

type InMemoryPhotoRepository struct {
	s *MemoryStore
}

func (r *InMemoryPhotoRepository) Create(ctx context.Context, p *domain.Photo) error {
	if err := p.Validate(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	clone := *p
	r.s.photos[p.ID] = &clone
	return nil
}

func (r *InMemoryPhotoRepository) GetByID(ctx context.Context, id string) (*domain.Photo, error) {
	p, err := r.GetRawByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsDeleted {
		return nil, domain.NewNotFound("photo", id)
	}
	return p, nil
}

func (r *InMemoryPhotoRepository) GetRawByID(ctx context.Context, id string) (*domain.Photo, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.photos[id]
	if !ok {
		return nil, domain.NewNotFound("photo", id)
	}
	clone := *p
	return &clone, nil
}

func (r *InMemoryPhotoRepository) ListByChallengeID(ctx context.Context, challengeID string) ([]*domain.Photo, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := []*domain.Photo{}
	for _, p := range r.s.photos {
		if p.ChallengeID == challengeID && !p.IsDeleted {
			clone := *p
			list = append(list, &clone)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].TakenOn.Before(list[j].TakenOn)
	})
	return list, nil
}

func (r *InMemoryPhotoRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.photos[id]
	if !ok || p.IsDeleted {
		return domain.NewNotFound("photo", id)
	}
	p.SoftDelete()
	return nil
}

// --- users ---

var _ domain.UserRepository = (*InMemoryUserRepository)(nil)

type InMemoryUserRepository struct {
	s *MemoryStore
}

func (r *InMemoryUserRepository) Create(ctx context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	clone := *u
	r.s.users[u.ID] = &clone
	return nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *InMemoryUserRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)
	return nil
}
