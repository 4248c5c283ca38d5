package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrChallengeClosed = errors.New("cannot modify a finished challenge")
)

type ChallengeType string

const (
	ChallengeSeventyFiveHard   ChallengeType = "seventy_five_hard"
	ChallengeSeventyFiveMedium ChallengeType = "seventy_five_medium"
	ChallengeSeventyFiveSoft   ChallengeType = "seventy_five_soft"
	ChallengeWaterFasting      ChallengeType = "water_fasting"
	ChallengeThirtyOneModified ChallengeType = "thirty_one_modified"
	ChallengeCustom            ChallengeType = "custom"
)

var challengeTypes = []ChallengeType{
	ChallengeSeventyFiveHard,
	ChallengeSeventyFiveMedium,
	ChallengeSeventyFiveSoft,
	ChallengeWaterFasting,
	ChallengeThirtyOneModified,
	ChallengeCustom,
}

func ChallengeTypes() []ChallengeType {
	out := make([]ChallengeType, len(challengeTypes))
	copy(out, challengeTypes)
	return out
}

func (t ChallengeType) Valid() bool {
	for _, ct := range challengeTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// FixedTaskCount is the exact number of tasks a fixed-structure challenge
// type must carry once populated. Zero means the type is freely structured.
func FixedTaskCount(t ChallengeType) int {
	if t == ChallengeSeventyFiveHard {
		return 5
	}
	return 0
}

type ChallengeStatus string

const (
	ChallengeNotStarted ChallengeStatus = "not_started"
	ChallengeInProgress ChallengeStatus = "in_progress"
	ChallengeCompleted  ChallengeStatus = "completed"
	ChallengeFailed     ChallengeStatus = "failed"
)

func (s ChallengeStatus) Valid() bool {
	switch s {
	case ChallengeNotStarted, ChallengeInProgress, ChallengeCompleted, ChallengeFailed:
		return true
	}
	return false
}

func (s ChallengeStatus) Terminal() bool {
	return s == ChallengeCompleted || s == ChallengeFailed
}

// SuccessThreshold is the adherence at which a challenge that reaches its
// end date counts as completed.
const SuccessThreshold = 0.8

type Challenge struct {
	ID           string          `json:"id" db:"id"`
	UserID       string          `json:"user_id" db:"user_id"`
	Type         ChallengeType   `json:"type" db:"type"`
	Name         string          `json:"name" db:"name"`
	Description  string          `json:"description" db:"description"`
	StartDate    *time.Time      `json:"start_date,omitempty" db:"start_date"`
	EndDate      *time.Time      `json:"end_date,omitempty" db:"end_date"`
	DurationDays int             `json:"duration_days" db:"duration_days"`
	Status       ChallengeStatus `json:"status" db:"status"`
	Progress     float64         `json:"progress" db:"progress"`
	Tasks        []*Task         `json:"tasks,omitempty" db:"-"`
	Version      int             `json:"version" db:"version"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
	IsDeleted    bool            `json:"is_deleted" db:"is_deleted"`
	DeletedAt    *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

func NewChallenge(userID string, cType ChallengeType, name, description string, durationDays int) (*Challenge, error) {
	now := time.Now().UTC()

	c := &Challenge{
		ID:           uuid.NewString(),
		UserID:       userID,
		Type:         cType,
		Name:         strings.TrimSpace(name),
		Description:  strings.TrimSpace(description),
		DurationDays: durationDays,
		Status:       ChallengeNotStarted,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks field, cross-field and business rules and reports every
// violation found.
func (c *Challenge) Validate() error {
	v := newValidator("challenge")

	v.requiredID("user_id", c.UserID)
	v.requiredText("name", c.Name, MaxNameLen)
	v.requiredText("description", c.Description, MaxDescLen)

	if !c.Type.Valid() {
		v.add("type", RuleOneOf, "invalid challenge type %q", c.Type)
	}
	if !c.Status.Valid() {
		v.add("status", RuleOneOf, "invalid challenge status %q", c.Status)
	}

	if c.DurationDays < MinDuration || c.DurationDays > MaxDuration {
		v.add("duration_days", RuleRange, "duration must be between %d and %d days", MinDuration, MaxDuration)
	}

	if (c.Status == ChallengeInProgress || c.Status == ChallengeCompleted) && c.StartDate == nil {
		v.add("start_date", RuleRequired, "start date is required once a challenge is %s", c.Status)
	}

	if c.StartDate != nil && c.EndDate != nil {
		if DaysBetween(*c.StartDate, *c.EndDate) != c.DurationDays {
			v.add("end_date", RuleDurationMatch, "end date must be exactly %d days after start date", c.DurationDays)
		}
	}

	if c.Progress < 0 || c.Progress > 1 {
		v.add("progress", RuleRange, "progress must be between 0 and 1")
	}

	if fixed := FixedTaskCount(c.Type); fixed > 0 && len(c.Tasks) > 0 && len(c.Tasks) != fixed {
		v.add("tasks", RuleFixedTaskCount, "%s challenges must have exactly %d tasks", c.Type, fixed)
	}

	return v.err()
}

func transitionError(from, to ChallengeStatus) error {
	return fmt.Errorf("%w: challenge %s -> %s", ErrInvalidTransition, from, to)
}

// Update changes the editable fields. A started challenge keeps its start
// date and moves its end date to match the new duration.
func (c *Challenge) Update(name, description string, durationDays int) error {
	if c.Status.Terminal() {
		return ErrChallengeClosed
	}

	next := *c
	next.Name = strings.TrimSpace(name)
	next.Description = strings.TrimSpace(description)
	next.DurationDays = durationDays
	if next.StartDate != nil {
		end := AddDays(*next.StartDate, durationDays)
		next.EndDate = &end
	}
	if err := next.Validate(); err != nil {
		return err
	}

	*c = next
	c.touch()
	return nil
}

// Start moves a not-started challenge in progress from the calendar day of now.
func (c *Challenge) Start(now time.Time) error {
	if c.Status != ChallengeNotStarted {
		return transitionError(c.Status, ChallengeInProgress)
	}
	if len(c.Tasks) == 0 {
		return &ValidationError{Entity: "challenge", Violations: []Violation{{
			Field: "tasks", Rule: RuleRequired, Message: "a challenge needs at least one task to start",
		}}}
	}

	start := Day(now)
	end := AddDays(start, c.DurationDays)
	c.StartDate = &start
	c.EndDate = &end
	c.Status = ChallengeInProgress
	c.Progress = 0
	c.touch()
	return nil
}

// Stop abandons a running challenge and returns it to the not-started state.
func (c *Challenge) Stop() error {
	if c.Status != ChallengeInProgress {
		return transitionError(c.Status, ChallengeNotStarted)
	}
	c.StartDate = nil
	c.EndDate = nil
	c.Status = ChallengeNotStarted
	c.Progress = 0
	c.touch()
	return nil
}

// Complete is the explicit user action; it pins progress to 1.
func (c *Challenge) Complete() error {
	if c.Status != ChallengeInProgress {
		return transitionError(c.Status, ChallengeCompleted)
	}
	c.Status = ChallengeCompleted
	c.Progress = 1
	c.touch()
	return nil
}

func (c *Challenge) Fail() error {
	if c.Status != ChallengeInProgress {
		return transitionError(c.Status, ChallengeFailed)
	}
	c.Status = ChallengeFailed
	c.touch()
	return nil
}

// ApplyReport stores a recomputed progress and, once the end date has been
// reached, settles a running challenge as completed or failed. It reports
// whether anything changed.
func (c *Challenge) ApplyReport(r ProgressReport, today time.Time) bool {
	if c.Status.Terminal() {
		return false
	}

	changed := false
	if c.Progress != r.Progress {
		c.Progress = r.Progress
		changed = true
	}

	if c.Status == ChallengeInProgress && r.TotalDue > 0 && c.Ended(today) {
		if r.Progress >= SuccessThreshold {
			c.Status = ChallengeCompleted
		} else {
			c.Status = ChallengeFailed
		}
		changed = true
	}

	if changed {
		c.touch()
	}
	return changed
}

// Ended reports whether today is on or after the end date.
func (c *Challenge) Ended(today time.Time) bool {
	return c.EndDate != nil && !Day(today).Before(*c.EndDate)
}

// IsActiveOn reports whether date falls inside the running window [start, end).
func (c *Challenge) IsActiveOn(date time.Time) bool {
	if c.Status != ChallengeInProgress || c.StartDate == nil || c.EndDate == nil {
		return false
	}
	d := Day(date)
	return !d.Before(*c.StartDate) && d.Before(*c.EndDate)
}

// LastDay is the final calendar day on which tasks are due.
func (c *Challenge) LastDay() (time.Time, bool) {
	if c.EndDate == nil {
		return time.Time{}, false
	}
	return AddDays(*c.EndDate, -1), true
}

func (c *Challenge) SoftDelete() {
	if c.IsDeleted {
		return
	}
	now := time.Now().UTC()
	c.IsDeleted = true
	c.DeletedAt = &now
	c.UpdatedAt = now
}

func (c *Challenge) touch() {
	c.UpdatedAt = time.Now().UTC()
}
