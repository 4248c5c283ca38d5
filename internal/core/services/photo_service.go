package services

import (
	"context"
	"time"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

type PhotoService struct {
	photos     domain.PhotoRepository
	challenges domain.ChallengeRepository
	daily      domain.DailyTaskRepository
	clock      Clock
}

func NewPhotoService(photos domain.PhotoRepository, challenges domain.ChallengeRepository, daily domain.DailyTaskRepository, clock Clock) *PhotoService {
	return &PhotoService{
		photos:     photos,
		challenges: challenges,
		daily:      daily,
		clock:      clock,
	}
}

type LogPhotoInput struct {
	UserID      string
	ChallengeID string
	DailyTaskID *string
	StorageKey  string
	Caption     string
	TakenOn     *time.Time
}

func (s *PhotoService) ownedChallenge(ctx context.Context, challengeID, userID string) (*domain.Challenge, error) {
	c, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return c, nil
}

// Log stores the metadata of a progress photo. A linked daily task must
// belong to the same challenge and its date becomes the photo's day.
func (s *PhotoService) Log(ctx context.Context, input LogPhotoInput) (*domain.Photo, error) {
	if _, err := s.ownedChallenge(ctx, input.ChallengeID, input.UserID); err != nil {
		return nil, err
	}

	takenOn := s.clock.Today()
	if input.TakenOn != nil {
		takenOn = *input.TakenOn
	}

	if input.DailyTaskID != nil && *input.DailyTaskID != "" {
		dt, err := s.daily.GetByID(ctx, *input.DailyTaskID)
		if err != nil {
			return nil, err
		}
		if dt.ChallengeID != input.ChallengeID {
			return nil, &domain.ValidationError{
				Entity: "photo",
				Violations: []domain.Violation{{
					Field:   "daily_task_id",
					Rule:    domain.RuleReference,
					Message: "daily task belongs to another challenge",
				}},
			}
		}
		takenOn = dt.Date
	}

	p, err := domain.NewPhoto(input.UserID, input.ChallengeID, input.StorageKey, input.Caption, takenOn)
	if err != nil {
		return nil, err
	}
	if input.DailyTaskID != nil && *input.DailyTaskID != "" {
		p.DailyTaskID = input.DailyTaskID
	}

	if err := s.photos.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PhotoService) List(ctx context.Context, challengeID, userID string) ([]*domain.Photo, error) {
	if _, err := s.ownedChallenge(ctx, challengeID, userID); err != nil {
		return nil, err
	}
	return s.photos.ListByChallengeID(ctx, challengeID)
}

func (s *PhotoService) Delete(ctx context.Context, id, userID string) error {
	p, err := s.photos.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p.UserID != userID {
		return domain.ErrUnauthorized
	}
	return s.photos.Delete(ctx, id)
}
