package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskWorkout    TaskType = "workout"
	TaskWater      TaskType = "water"
	TaskReading    TaskType = "reading"
	TaskDiet       TaskType = "diet"
	TaskPhoto      TaskType = "photo"
	TaskFasting    TaskType = "fasting"
	TaskMeditation TaskType = "meditation"
	TaskCustom     TaskType = "custom"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskWorkout, TaskWater, TaskReading, TaskDiet, TaskPhoto, TaskFasting, TaskMeditation, TaskCustom:
		return true
	}
	return false
}

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyOnce    Frequency = "once"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyOnce:
		return true
	}
	return false
}

type Task struct {
	ID            string     `json:"id" db:"id"`
	ChallengeID   string     `json:"challenge_id" db:"challenge_id"`
	Name          string     `json:"name" db:"name"`
	Description   string     `json:"description" db:"description"`
	Type          TaskType   `json:"type" db:"type"`
	Frequency     Frequency  `json:"frequency" db:"frequency"`
	TargetValue   *float64   `json:"target_value,omitempty" db:"target_value"`
	Unit          string     `json:"unit,omitempty" db:"unit"`
	ScheduledTime *string    `json:"scheduled_time,omitempty" db:"scheduled_time"`
	Position      int        `json:"position" db:"position"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	IsDeleted     bool       `json:"is_deleted" db:"is_deleted"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// TaskSpec carries the caller-supplied fields of a task.
type TaskSpec struct {
	Name          string
	Description   string
	Type          TaskType
	Frequency     Frequency
	TargetValue   *float64
	Unit          string
	ScheduledTime string
}

func NewTask(challengeID string, spec TaskSpec, position int) (*Task, error) {
	now := time.Now().UTC()

	freq := spec.Frequency
	if freq == "" {
		freq = FrequencyDaily
	}
	tType := spec.Type
	if tType == "" {
		tType = TaskCustom
	}

	var scheduled *string
	if s := strings.TrimSpace(spec.ScheduledTime); s != "" {
		scheduled = &s
	}

	t := &Task{
		ID:            uuid.NewString(),
		ChallengeID:   challengeID,
		Name:          strings.TrimSpace(spec.Name),
		Description:   strings.TrimSpace(spec.Description),
		Type:          tType,
		Frequency:     freq,
		TargetValue:   spec.TargetValue,
		Unit:          strings.TrimSpace(spec.Unit),
		ScheduledTime: scheduled,
		Position:      position,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Task) Validate() error {
	v := newValidator("task")

	v.requiredID("challenge_id", t.ChallengeID)
	v.requiredText("name", t.Name, MaxNameLen)
	v.requiredText("description", t.Description, MaxDescLen)

	if !t.Type.Valid() {
		v.add("type", RuleOneOf, "invalid task type %q", t.Type)
	}
	if !t.Frequency.Valid() {
		v.add("frequency", RuleOneOf, "invalid frequency %q (must be daily, weekly, monthly or once)", t.Frequency)
	}

	if t.TargetValue != nil {
		if *t.TargetValue < 0 {
			v.add("target_value", RuleNonNegative, "target value cannot be negative")
		}
		if strings.TrimSpace(t.Unit) == "" {
			v.add("unit", RuleRequired, "unit is required when a target value is set")
		}
	}

	if t.ScheduledTime != nil && !scheduledTimeRegex.MatchString(*t.ScheduledTime) {
		v.add("scheduled_time", RuleFormat, "invalid scheduled time (must be HH:MM 24h)")
	}

	if t.Position < 0 {
		v.add("position", RuleNonNegative, "position cannot be negative")
	}

	return v.err()
}

// IsDueOn evaluates the recurrence rule for date against the challenge start.
func (t *Task) IsDueOn(start, date time.Time) bool {
	s, d := Day(start), Day(date)
	switch t.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		return d.Weekday() == s.Weekday()
	case FrequencyMonthly:
		return d.Day() == s.Day()
	case FrequencyOnce:
		return d.Equal(s)
	}
	return false
}

// ReminderAt combines the scheduled time-of-day with a calendar day in loc.
func (t *Task) ReminderAt(date time.Time, loc *time.Location) (time.Time, bool) {
	if t.ScheduledTime == nil {
		return time.Time{}, false
	}
	hm, err := time.Parse("15:04", *t.ScheduledTime)
	if err != nil {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, hm.Hour(), hm.Minute(), 0, 0, loc), true
}

func (t *Task) SoftDelete() {
	if t.IsDeleted {
		return
	}
	now := time.Now().UTC()
	t.IsDeleted = true
	t.DeletedAt = &now
	t.UpdatedAt = now
}
