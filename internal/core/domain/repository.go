package domain

import (
	"context"
	"time"
)

// Every write validates the record first. Reads and lists skip
// soft-deleted rows unless the method says otherwise.

type ChallengeRepository interface {
	// Create persists a new challenge together with any tasks it carries,
	// in a single transaction.
	Create(ctx context.Context, challenge *Challenge) error

	// GetByID retrieves an active (non-deleted) challenge. Tasks are not loaded.
	GetByID(ctx context.Context, id string) (*Challenge, error)

	// GetRawByID retrieves a challenge even when it has been soft-deleted.
	GetRawByID(ctx context.Context, id string) (*Challenge, error)

	// ListByUserID retrieves all active challenges of a user.
	ListByUserID(ctx context.Context, userID string) ([]*Challenge, error)

	// ListInProgress retrieves running challenges; an empty userID means every user.
	ListInProgress(ctx context.Context, userID string) ([]*Challenge, error)

	// Update writes the challenge if its version still matches the stored one
	// and bumps the version. A mismatch returns ErrConflict.
	Update(ctx context.Context, challenge *Challenge) error

	// Stop writes the challenge like Update and physically removes its daily
	// tasks in the same transaction. Either both happen or neither does.
	Stop(ctx context.Context, challenge *Challenge) error

	// Delete performs a soft delete.
	Delete(ctx context.Context, id string) error

	// GetChanges [SYNC] returns every challenge touched after since, deleted ones included.
	GetChanges(ctx context.Context, userID string, since time.Time) ([]*Challenge, error)
}

type TaskRepository interface {
	Create(ctx context.Context, task *Task) error

	GetByID(ctx context.Context, id string) (*Task, error)

	// ListByChallengeIDs returns active tasks ordered by position, grouped by challenge id.
	ListByChallengeIDs(ctx context.Context, challengeIDs []string) (map[string][]*Task, error)

	Update(ctx context.Context, task *Task) error

	// Delete performs a soft delete.
	Delete(ctx context.Context, id string) error
}

type DailyTaskRepository interface {
	// CreateBatch inserts all daily tasks in one transaction. Rows whose
	// (task_id, date) already exists are skipped; the inserted count is returned.
	// Any other failure rolls the whole batch back.
	CreateBatch(ctx context.Context, tasks []*DailyTask) (int, error)

	GetByID(ctx context.Context, id string) (*DailyTask, error)

	// ListByDate returns the daily tasks dated on date; an empty userID means every user.
	ListByDate(ctx context.Context, userID string, date time.Time) ([]*DailyTask, error)

	// ListByChallengeID returns the daily tasks of a challenge dated within [from, to].
	ListByChallengeID(ctx context.Context, challengeID string, from, to time.Time) ([]*DailyTask, error)

	// ListOpenBefore returns not_started/in_progress tasks dated before date.
	ListOpenBefore(ctx context.Context, userID string, date time.Time) ([]*DailyTask, error)

	// Update applies optimistic locking on Version, see ChallengeRepository.Update.
	Update(ctx context.Context, task *DailyTask) error

	GetChanges(ctx context.Context, userID string, since time.Time) ([]*DailyTask, error)
}

type PhotoRepository interface {
	Create(ctx context.Context, photo *Photo) error
	GetByID(ctx context.Context, id string) (*Photo, error)
	GetRawByID(ctx context.Context, id string) (*Photo, error)
	ListByChallengeID(ctx context.Context, challengeID string) ([]*Photo, error)
	Delete(ctx context.Context, id string) error
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Delete(ctx context.Context, id string) error
}
