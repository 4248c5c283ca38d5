package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/templates"
)

type ChallengeService struct {
	challenges domain.ChallengeRepository
	tasks      domain.TaskRepository
	templates  *templates.Registry
	generator  *TaskGenerator
	clock      Clock
}

func NewChallengeService(
	challenges domain.ChallengeRepository,
	tasks domain.TaskRepository,
	registry *templates.Registry,
	generator *TaskGenerator,
	clock Clock,
) *ChallengeService {
	return &ChallengeService{
		challenges: challenges,
		tasks:      tasks,
		templates:  registry,
		generator:  generator,
		clock:      clock,
	}
}

type TaskInput struct {
	Name          string
	Description   string
	Type          string
	Frequency     string
	TargetValue   *float64
	Unit          string
	ScheduledTime string
}

func (in TaskInput) spec() domain.TaskSpec {
	return domain.TaskSpec{
		Name:          in.Name,
		Description:   in.Description,
		Type:          domain.TaskType(in.Type),
		Frequency:     domain.Frequency(in.Frequency),
		TargetValue:   in.TargetValue,
		Unit:          in.Unit,
		ScheduledTime: in.ScheduledTime,
	}
}

type CreateChallengeInput struct {
	UserID       string
	Type         string
	Name         string
	Description  string
	DurationDays int
	Tasks        []TaskInput
}

type CreateFromTemplateInput struct {
	UserID       string
	Type         string
	Name         string
	Description  string
	DurationDays int
}

type UpdateChallengeInput struct {
	ID           string
	UserID       string
	Name         string
	Description  string
	DurationDays int
	Version      int
}

type AddTaskInput struct {
	ChallengeID string
	UserID      string
	Task        TaskInput
}

func mergeString(newVal, oldVal string) string {
	if newVal == "" {
		return oldVal
	}
	return newVal
}

func mergeInt(newVal, oldVal int) int {
	if newVal == 0 {
		return oldVal
	}
	return newVal
}

func (s *ChallengeService) Create(ctx context.Context, input CreateChallengeInput) (*domain.Challenge, error) {
	cType := domain.ChallengeType(mergeString(input.Type, string(domain.ChallengeCustom)))

	c, err := domain.NewChallenge(input.UserID, cType, input.Name, input.Description, input.DurationDays)
	if err != nil {
		return nil, err
	}

	for i, in := range input.Tasks {
		task, err := domain.NewTask(c.ID, in.spec(), i)
		if err != nil {
			return nil, fmt.Errorf("task %d: %w", i, err)
		}
		c.Tasks = append(c.Tasks, task)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.challenges.Create(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// CreateFromTemplate instantiates a predefined challenge type with its
// default task set. Empty input fields take the template's values.
func (s *ChallengeService) CreateFromTemplate(ctx context.Context, input CreateFromTemplateInput) (*domain.Challenge, error) {
	tpl, ok := s.templates.Get(domain.ChallengeType(input.Type))
	if !ok {
		return nil, domain.NewNotFound("template", input.Type)
	}

	c, err := domain.NewChallenge(
		input.UserID,
		tpl.Type,
		mergeString(input.Name, tpl.Name),
		mergeString(input.Description, tpl.Description),
		mergeInt(input.DurationDays, tpl.DurationDays),
	)
	if err != nil {
		return nil, err
	}

	for i, tt := range tpl.Tasks {
		task, err := domain.NewTask(c.ID, tt.Spec(), i)
		if err != nil {
			return nil, fmt.Errorf("template %s task %d: %w", tpl.Type, i, err)
		}
		c.Tasks = append(c.Tasks, task)
	}

	if err := s.challenges.Create(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *ChallengeService) ListTemplates() []templates.Template {
	return s.templates.List()
}

// owned loads a live challenge of userID together with its tasks.
func (s *ChallengeService) owned(ctx context.Context, id, userID string) (*domain.Challenge, error) {
	c, err := s.challenges.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, domain.ErrUnauthorized
	}

	tasks, err := s.tasks.ListByChallengeIDs(ctx, []string{c.ID})
	if err != nil {
		return nil, err
	}
	c.Tasks = tasks[c.ID]
	return c, nil
}

func (s *ChallengeService) Get(ctx context.Context, id, userID string) (*domain.Challenge, error) {
	return s.owned(ctx, id, userID)
}

func (s *ChallengeService) List(ctx context.Context, userID string) ([]*domain.Challenge, error) {
	challenges, err := s.challenges.ListByUserID(ctx, userID)
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
	tasks, err := s.tasks.ListByChallengeIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range challenges {
		c.Tasks = tasks[c.ID]
	}
	return challenges, nil
}

func (s *ChallengeService) GetDelta(ctx context.Context, userID string, since time.Time) ([]*domain.Challenge, error) {
	return s.challenges.GetChanges(ctx, userID, since)
}

func (s *ChallengeService) Update(ctx context.Context, input UpdateChallengeInput) (*domain.Challenge, error) {
	c, err := s.owned(ctx, input.ID, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Version > 0 && c.Version != input.Version {
		return nil, fmt.Errorf("%w: client v%d vs server v%d", domain.ErrConflict, input.Version, c.Version)
	}

	err = c.Update(
		mergeString(input.Name, c.Name),
		mergeString(input.Description, c.Description),
		mergeInt(input.DurationDays, c.DurationDays),
	)
	if err != nil {
		return nil, err
	}

	if err := s.challenges.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ChallengeService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	return s.challenges.Delete(ctx, id)
}

// Start begins the challenge today and generates today's daily tasks for
// its owner right away.
func (s *ChallengeService) Start(ctx context.Context, id, userID string) (*domain.Challenge, error) {
	c, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if err := c.Start(s.clock.Now().In(s.clock.Location)); err != nil {
		return nil, err
	}
	if err := s.challenges.Update(ctx, c); err != nil {
		return nil, err
	}

	if s.generator != nil {
		if _, err := s.generator.GenerateToday(ctx, userID); err != nil {
			log.Printf("[ERROR] Generation after start of %s failed: %v", c.ID, err)
		}
	}
	return c, nil
}

// Stop abandons a running challenge and discards its daily tasks, so it
// can be started again from scratch.
func (s *ChallengeService) Stop(ctx context.Context, id, userID string) (*domain.Challenge, error) {
	c, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if err := c.Stop(); err != nil {
		return nil, err
	}
	if err := s.challenges.Stop(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ChallengeService) Complete(ctx context.Context, id, userID string) (*domain.Challenge, error) {
	return s.transition(ctx, id, userID, (*domain.Challenge).Complete)
}

func (s *ChallengeService) Fail(ctx context.Context, id, userID string) (*domain.Challenge, error) {
	return s.transition(ctx, id, userID, (*domain.Challenge).Fail)
}

func (s *ChallengeService) transition(ctx context.Context, id, userID string, apply func(*domain.Challenge) error) (*domain.Challenge, error) {
	c, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := apply(c); err != nil {
		return nil, err
	}
	if err := s.challenges.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddTask appends a task to a challenge that has not finished yet.
func (s *ChallengeService) AddTask(ctx context.Context, input AddTaskInput) (*domain.Task, error) {
	c, err := s.owned(ctx, input.ChallengeID, input.UserID)
	if err != nil {
		return nil, err
	}
	if c.Status.Terminal() {
		return nil, domain.ErrChallengeClosed
	}

	task, err := domain.NewTask(c.ID, input.Task.spec(), nextPosition(c.Tasks))
	if err != nil {
		return nil, err
	}

	c.Tasks = append(c.Tasks, task)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *ChallengeService) RemoveTask(ctx context.Context, challengeID, taskID, userID string) error {
	c, err := s.owned(ctx, challengeID, userID)
	if err != nil {
		return err
	}
	if c.Status.Terminal() {
		return domain.ErrChallengeClosed
	}

	remaining := make([]*domain.Task, 0, len(c.Tasks))
	found := false
	for _, t := range c.Tasks {
		if t.ID == taskID {
			found = true
			continue
		}
		remaining = append(remaining, t)
	}
	if !found {
		return domain.NewNotFound("task", taskID)
	}

	c.Tasks = remaining
	if err := c.Validate(); err != nil {
		return err
	}

	return s.tasks.Delete(ctx, taskID)
}

func nextPosition(tasks []*domain.Task) int {
	next := 0
	for _, t := range tasks {
		if t.Position >= next {
			next = t.Position + 1
		}
	}
	return next
}
