package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

const (
	reminderDueKey     = "reminders:due"
	reminderPayloadKey = "reminders:payload"
)

var _ domain.ReminderScheduler = (*RedisReminderQueue)(nil)
var _ domain.ReminderScheduler = (*MemoryReminderQueue)(nil)

// popDueScript atomically removes and returns every payload scored at or
// below ARGV[1], so two dispatchers never deliver the same reminder.
var popDueScript = redis.NewScript(`
local ids = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
local out = {}
for _, id in ipairs(ids) do
	local payload = redis.call("HGET", KEYS[2], id)
	redis.call("ZREM", KEYS[1], id)
	redis.call("HDEL", KEYS[2], id)
	if payload then
		table.insert(out, payload)
	end
end
return out
`)

// RedisReminderQueue stores reminders in a sorted set scored by due time,
// keyed by daily task id, with the payload kept in a side hash.
type RedisReminderQueue struct {
	client *redis.Client
}

func NewRedisReminderQueue(client *redis.Client) *RedisReminderQueue {
	return &RedisReminderQueue{client: client}
}

func (q *RedisReminderQueue) Schedule(ctx context.Context, reminders ...domain.Reminder) error {
	if len(reminders) == 0 {
		return nil
	}

	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, r := range reminders {
			data, err := json.Marshal(r)
			if err != nil {
				return err
			}
			pipe.ZAdd(ctx, reminderDueKey, redis.Z{
				Score:  float64(r.At.UnixMilli()),
				Member: r.DailyTaskID,
			})
			pipe.HSet(ctx, reminderPayloadKey, r.DailyTaskID, data)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}
	return nil
}

func (q *RedisReminderQueue) Due(ctx context.Context, now time.Time) ([]domain.Reminder, error) {
	res, err := popDueScript.Run(ctx, q.client,
		[]string{reminderDueKey, reminderPayloadKey},
		now.UnixMilli(),
	).StringSlice()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("pop due reminders: %w", err)
	}

	due := make([]domain.Reminder, 0, len(res))
	for _, payload := range res {
		var r domain.Reminder
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			log.Printf("[REMINDER] Dropping corrupted payload: %v", err)
			continue
		}
		due = append(due, r)
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].At.Before(due[j].At)
	})
	return due, nil
}

// MemoryReminderQueue is the single-process fallback used when Redis is disabled.
type MemoryReminderQueue struct {
	mu      sync.Mutex
	pending map[string]domain.Reminder
}

func NewMemoryReminderQueue() *MemoryReminderQueue {
	return &MemoryReminderQueue{pending: make(map[string]domain.Reminder)}
}

func (q *MemoryReminderQueue) Schedule(ctx context.Context, reminders ...domain.Reminder) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, r := range reminders {
		q.pending[r.DailyTaskID] = r
	}
	return nil
}

func (q *MemoryReminderQueue) Due(ctx context.Context, now time.Time) ([]domain.Reminder, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []domain.Reminder
	for id, r := range q.pending {
		if !r.At.After(now) {
			due = append(due, r)
			delete(q.pending, id)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].At.Before(due[j].At)
	})
	return due, nil
}
