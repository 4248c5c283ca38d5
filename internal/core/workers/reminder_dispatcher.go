package workers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

type DailyTaskReader interface {
	GetByID(ctx context.Context, id string) (*domain.DailyTask, error)
}

// ReminderDispatcher polls the reminder queue and hands every due reminder
// to the notifier. Reminders for tasks already done or removed are dropped.
type ReminderDispatcher struct {
	queue    domain.ReminderScheduler
	notifier domain.Notifier
	daily    DailyTaskReader
	now      func() time.Time
	interval time.Duration
}

func NewReminderDispatcher(queue domain.ReminderScheduler, notifier domain.Notifier, daily DailyTaskReader, interval time.Duration) *ReminderDispatcher {
	return &ReminderDispatcher{
		queue:    queue,
		notifier: notifier,
		daily:    daily,
		now:      time.Now,
		interval: interval,
	}
}

func (d *ReminderDispatcher) Start(ctx context.Context) {
	go func() {
		log.Printf("[REMINDER] Dispatcher started, polling every %s", d.interval)
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := d.DispatchDue(ctx); err != nil {
					log.Printf("[REMINDER] Dispatch failed: %v", err)
				}
			case <-ctx.Done():
				log.Println("[REMINDER] Dispatcher shutting down...")
				return
			}
		}
	}()
}

// DispatchDue delivers every reminder due now and returns how many were sent.
func (d *ReminderDispatcher) DispatchDue(ctx context.Context) (int, error) {
	due, err := d.queue.Due(ctx, d.now())
	if err != nil {
		return 0, err
	}

	var errs []error
	sent := 0
	for _, r := range due {
		if !d.stillOpen(ctx, r) {
			continue
		}
		if err := d.notifier.Notify(ctx, r); err != nil {
			errs = append(errs, err)
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}

func (d *ReminderDispatcher) stillOpen(ctx context.Context, r domain.Reminder) bool {
	if d.daily == nil {
		return true
	}
	dt, err := d.daily.GetByID(ctx, r.DailyTaskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false
		}
		log.Printf("[REMINDER] Could not check daily task %s, sending anyway: %v", r.DailyTaskID, err)
		return true
	}
	return dt.Status.Open()
}
