package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type DailyTaskStatus string

const (
	DailyNotStarted DailyTaskStatus = "not_started"
	DailyInProgress DailyTaskStatus = "in_progress"
	DailyCompleted  DailyTaskStatus = "completed"
	DailyMissed     DailyTaskStatus = "missed"
	DailyFailed     DailyTaskStatus = "failed"
)

func (s DailyTaskStatus) Valid() bool {
	switch s {
	case DailyNotStarted, DailyInProgress, DailyCompleted, DailyMissed, DailyFailed:
		return true
	}
	return false
}

// Open reports whether the task can still be acted on.
func (s DailyTaskStatus) Open() bool {
	return s == DailyNotStarted || s == DailyInProgress
}

// DailyTask is one day's concrete instance of a Task.
type DailyTask struct {
	ID          string          `json:"id" db:"id"`
	TaskID      string          `json:"task_id" db:"task_id"`
	ChallengeID string          `json:"challenge_id" db:"challenge_id"`
	UserID      string          `json:"user_id" db:"user_id"`
	Date        time.Time       `json:"date" db:"date"`
	Status      DailyTaskStatus `json:"status" db:"status"`
	ActualValue *float64        `json:"actual_value,omitempty" db:"actual_value"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	Notes       *string         `json:"notes,omitempty" db:"notes"`

	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func NewDailyTask(task *Task, userID string, date time.Time) *DailyTask {
	now := time.Now().UTC()

	return &DailyTask{
		ID:          uuid.NewString(),
		TaskID:      task.ID,
		ChallengeID: task.ChallengeID,
		UserID:      userID,
		Date:        Day(date),
		Status:      DailyNotStarted,

		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (d *DailyTask) Validate() error {
	v := newValidator("daily_task")

	v.requiredID("task_id", d.TaskID)
	v.requiredID("challenge_id", d.ChallengeID)
	v.requiredID("user_id", d.UserID)

	if d.Date.IsZero() {
		v.add("date", RuleRequired, "date is required")
	}
	if !d.Status.Valid() {
		v.add("status", RuleOneOf, "invalid daily task status %q", d.Status)
	}
	if d.ActualValue != nil && *d.ActualValue < 0 {
		v.add("actual_value", RuleNonNegative, "actual value cannot be negative")
	}
	if d.Status == DailyCompleted && d.CompletedAt == nil {
		v.add("completed_at", RuleRequired, "completed tasks need a completion timestamp")
	}
	if d.Notes != nil {
		v.maxText("notes", *d.Notes, MaxNotesLen)
	}

	return v.err()
}

// Key identifies the (task, date) pair that must be unique.
func (d *DailyTask) Key() string {
	return DailyTaskKey(d.TaskID, d.Date)
}

func DailyTaskKey(taskID string, date time.Time) string {
	return taskID + "@" + DateKey(date)
}

func dailyTransitionError(from, to DailyTaskStatus) error {
	return fmt.Errorf("%w: daily task %s -> %s", ErrInvalidTransition, from, to)
}

// Complete marks the task done at now, optionally recording the value reached.
func (d *DailyTask) Complete(value *float64, now time.Time) error {
	if d.Status == DailyCompleted {
		return nil
	}
	if value != nil {
		if *value < 0 {
			return &ValidationError{Entity: "daily_task", Violations: []Violation{{
				Field: "actual_value", Rule: RuleNonNegative, Message: "actual value cannot be negative",
			}}}
		}
		d.ActualValue = value
	}
	ts := now.UTC()
	d.Status = DailyCompleted
	d.CompletedAt = &ts
	d.touch()
	return nil
}

// LogValue records partial progress; reaching target completes the task.
func (d *DailyTask) LogValue(value float64, target *float64, now time.Time) error {
	if !d.Status.Open() {
		return dailyTransitionError(d.Status, DailyInProgress)
	}
	if value < 0 {
		return &ValidationError{Entity: "daily_task", Violations: []Violation{{
			Field: "actual_value", Rule: RuleNonNegative, Message: "actual value cannot be negative",
		}}}
	}
	if target != nil && value >= *target {
		return d.Complete(&value, now)
	}
	d.ActualValue = &value
	d.Status = DailyInProgress
	d.touch()
	return nil
}

// Reset returns the task to its initial state.
func (d *DailyTask) Reset() {
	d.Status = DailyNotStarted
	d.ActualValue = nil
	d.CompletedAt = nil
	d.touch()
}

func (d *DailyTask) MarkMissed() error {
	if d.Status == DailyCompleted {
		return dailyTransitionError(d.Status, DailyMissed)
	}
	d.Status = DailyMissed
	d.touch()
	return nil
}

func (d *DailyTask) MarkFailed() error {
	if d.Status == DailyCompleted {
		return dailyTransitionError(d.Status, DailyFailed)
	}
	d.Status = DailyFailed
	d.touch()
	return nil
}

// SetNotes replaces the notes; a rejected value leaves d unchanged.
func (d *DailyTask) SetNotes(notes string) error {
	next := *d
	trimmed := strings.TrimSpace(notes)
	if trimmed == "" {
		next.Notes = nil
	} else {
		next.Notes = &trimmed
	}
	if err := next.Validate(); err != nil {
		return err
	}

	*d = next
	d.touch()
	return nil
}

func (d *DailyTask) touch() {
	d.UpdatedAt = time.Now().UTC()
}
