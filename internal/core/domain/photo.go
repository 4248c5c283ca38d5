package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Photo is the metadata of a progress photo. The image bytes live in an
// external object store addressed by StorageKey.
type Photo struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	ChallengeID string     `json:"challenge_id" db:"challenge_id"`
	DailyTaskID *string    `json:"daily_task_id,omitempty" db:"daily_task_id"`
	TakenOn     time.Time  `json:"taken_on" db:"taken_on"`
	StorageKey  string     `json:"storage_key" db:"storage_key"`
	Caption     string     `json:"caption,omitempty" db:"caption"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	IsDeleted   bool       `json:"is_deleted" db:"is_deleted"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

func NewPhoto(userID, challengeID, storageKey, caption string, takenOn time.Time) (*Photo, error) {
	p := &Photo{
		ID:          uuid.NewString(),
		UserID:      userID,
		ChallengeID: challengeID,
		TakenOn:     Day(takenOn),
		StorageKey:  strings.TrimSpace(storageKey),
		Caption:     strings.TrimSpace(caption),
		CreatedAt:   time.Now().UTC(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Photo) Validate() error {
	v := newValidator("photo")
	v.requiredID("user_id", p.UserID)
	v.requiredID("challenge_id", p.ChallengeID)
	v.requiredID("storage_key", p.StorageKey)
	v.maxText("caption", p.Caption, MaxCaptionLen)
	if p.TakenOn.IsZero() {
		v.add("taken_on", RuleRequired, "taken_on is required")
	}
	return v.err()
}

func (p *Photo) SoftDelete() {
	if p.IsDeleted {
		return
	}
	now := time.Now().UTC()
	p.IsDeleted = true
	p.DeletedAt = &now
}
