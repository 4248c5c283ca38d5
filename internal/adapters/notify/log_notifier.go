package notify

import (
	"context"
	"log"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

var _ domain.Notifier = (*LogNotifier)(nil)

// LogNotifier writes reminders to a logger. It stands in for a push gateway.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, r domain.Reminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.Printf("[REMINDER] user=%s challenge=%s daily_task=%s %q due at %s",
		r.UserID, r.ChallengeID, r.DailyTaskID, r.TaskName, r.At.Format("2006-01-02 15:04 MST"))
	return nil
}
