package notify

import (
	"bytes"
	"context"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

func TestLogNotifier_Notify(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(log.New(&buf, "", 0))

	r := domain.Reminder{
		UserID:      "user-1",
		ChallengeID: "c-1",
		DailyTaskID: "dt-1",
		TaskName:    "Read",
		At:          time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC),
	}

	assert.NoError(t, n.Notify(context.Background(), r))
	assert.Contains(t, buf.String(), `[REMINDER] user=user-1 challenge=c-1 daily_task=dt-1 "Read" due at 2026-03-02 21:00 UTC`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Notify(ctx, r), context.Canceled)
}
