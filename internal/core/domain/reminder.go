package domain

import (
	"context"
	"time"
)

// Reminder asks for the user to be notified at At about a daily task.
type Reminder struct {
	UserID      string    `json:"user_id"`
	ChallengeID string    `json:"challenge_id"`
	DailyTaskID string    `json:"daily_task_id"`
	TaskName    string    `json:"task_name"`
	At          time.Time `json:"at"`
}

type ReminderScheduler interface {
	// Schedule queues a reminder. Scheduling the same daily task twice keeps one entry.
	Schedule(ctx context.Context, reminders ...Reminder) error

	// Due removes and returns every reminder whose time is at or before now.
	Due(ctx context.Context, now time.Time) ([]Reminder, error)
}

// Notifier delivers a reminder to the user.
type Notifier interface {
	Notify(ctx context.Context, reminder Reminder) error
}
