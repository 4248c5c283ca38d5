package workers

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

const DefaultQueueSize = 100

type Recalculator interface {
	Recalculate(ctx context.Context, challengeID string, today time.Time) (*domain.ProgressReport, error)
	Today() time.Time
}

type ProgressJob struct {
	ChallengeID string
}

// ProgressWorker recomputes challenge progress in the background after
// daily tasks change. A challenge already waiting in the queue is not
// queued twice.
type ProgressWorker struct {
	progress Recalculator
	jobs     chan ProgressJob

	mu      sync.Mutex
	pending map[string]struct{}
}

func NewProgressWorker(progress Recalculator, queueSize int) *ProgressWorker {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &ProgressWorker{
		progress: progress,
		jobs:     make(chan ProgressJob, queueSize),
		pending:  make(map[string]struct{}),
	}
}

func (w *ProgressWorker) Start(ctx context.Context) {
	go func() {
		log.Println("[WORKER] Progress worker started in background...")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				log.Println("[WORKER] Progress worker shutting down...")
				return
			}
		}
	}()
}

func (w *ProgressWorker) Enqueue(challengeID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, queued := w.pending[challengeID]; queued {
		return
	}

	select {
	case w.jobs <- ProgressJob{ChallengeID: challengeID}:
		w.pending[challengeID] = struct{}{}
	default:
		log.Printf("[WORKER] Progress queue full! Dropping job for challenge %s", challengeID)
	}
}

// Pending is the number of challenges waiting to be recalculated.
func (w *ProgressWorker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

func (w *ProgressWorker) processJob(ctx context.Context, job ProgressJob) {
	w.mu.Lock()
	delete(w.pending, job.ChallengeID)
	w.mu.Unlock()

	report, err := w.progress.Recalculate(ctx, job.ChallengeID, w.progress.Today())
	if err != nil {
		log.Printf("[WORKER] Failed to recalculate challenge %s: %v", job.ChallengeID, err)
		return
	}
	log.Printf("[WORKER] Progress of %s: %.2f (%d/%d), status %s",
		job.ChallengeID, report.Progress, report.Completed, report.TotalDue, report.Status)
}
