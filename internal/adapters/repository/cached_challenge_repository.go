package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

var _ domain.ChallengeRepository = (*CachedChallengeRepository)(nil)

const challengeListTTL = 30 * time.Minute

// CachedChallengeRepository keeps each user's challenge list in Redis
// (cache-aside). Every write through it drops the user's entry.
type CachedChallengeRepository struct {
	next  domain.ChallengeRepository
	cache *redis.Client
}

func NewCachedChallengeRepository(next domain.ChallengeRepository, cache *redis.Client) *CachedChallengeRepository {
	return &CachedChallengeRepository{
		next:  next,
		cache: cache,
	}
}

func (r *CachedChallengeRepository) cacheKey(userID string) string {
	return fmt.Sprintf("challenges:%s", userID)
}

func (r *CachedChallengeRepository) invalidate(ctx context.Context, userID string) {
	if err := r.cache.Del(ctx, r.cacheKey(userID)).Err(); err != nil {
		log.Printf("[CACHE] Failed to invalidate for user %s: %v", userID, err)
	}
}

func (r *CachedChallengeRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Challenge, error) {
	key := r.cacheKey(userID)

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		var challenges []*domain.Challenge
		if err := json.Unmarshal([]byte(val), &challenges); err == nil {
			return challenges, nil
		}

		log.Printf("[CACHE] Corrupted data for user %s, cleaning up key", userID)
		r.cache.Del(ctx, key)
	} else if err != redis.Nil {
		log.Printf("[CACHE] Redis read error: %v", err)
	}

	challenges, err := r.next.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(challenges); err == nil {
		if setErr := r.cache.Set(ctx, key, data, challengeListTTL).Err(); setErr != nil {
			log.Printf("[CACHE] Redis set error: %v", setErr)
		}
	}

	return challenges, nil
}

func (r *CachedChallengeRepository) GetByID(ctx context.Context, id string) (*domain.Challenge, error) {
	return r.next.GetByID(ctx, id)
}

func (r *CachedChallengeRepository) GetRawByID(ctx context.Context, id string) (*domain.Challenge, error) {
	return r.next.GetRawByID(ctx, id)
}

func (r *CachedChallengeRepository) ListInProgress(ctx context.Context, userID string) ([]*domain.Challenge, error) {
	return r.next.ListInProgress(ctx, userID)
}

func (r *CachedChallengeRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Challenge, error) {
	return r.next.GetChanges(ctx, userID, since)
}

func (r *CachedChallengeRepository) Create(ctx context.Context, c *domain.Challenge) error {
	if err := r.next.Create(ctx, c); err != nil {
		return err
	}
	r.invalidate(ctx, c.UserID)
	return nil
}

func (r *CachedChallengeRepository) Update(ctx context.Context, c *domain.Challenge) error {
	if err := r.next.Update(ctx, c); err != nil {
		return err
	}
	r.invalidate(ctx, c.UserID)
	return nil
}

func (r *CachedChallengeRepository) Stop(ctx context.Context, c *domain.Challenge) error {
	if err := r.next.Stop(ctx, c); err != nil {
		return err
	}
	r.invalidate(ctx, c.UserID)
	return nil
}

func (r *CachedChallengeRepository) Delete(ctx context.Context, id string) error {
	c, err := r.next.GetByID(ctx, id)
	if err == nil && c != nil {
		defer r.invalidate(ctx, c.UserID)
	}

	return r.next.Delete(ctx, id)
}
