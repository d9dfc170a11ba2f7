package worker

import (
	"context"
	"log/slog"
	"time"

	"bike-reserve/internal/infra/db"
	"bike-reserve/internal/infra/outbox"
	"bike-reserve/internal/pkg/clock"

	"github.com/google/uuid"
)

type DeadLetterStore interface {
	ListDeadLetters(ctx context.Context, jobType string, limit int32) ([]outbox.DeadLetter, error)
	DeleteDeadLetter(ctx context.Context, id uuid.UUID) error
	Enqueue(ctx context.Context, tx db.DBTX, jobType string, payload []byte, runAt time.Time, dedupeKey *string) error
}

// Drainer requeues parked jobs after an operator has fixed the underlying
// fault. Nothing calls it automatically; dead letters stay put until drained.
type Drainer struct {
	store  DeadLetterStore
	pool   db.Pool
	clock  clock.Clock
	logger *slog.Logger
}

func NewDrainer(store DeadLetterStore, pool db.Pool, clk clock.Clock, logger *slog.Logger) *Drainer {
	return &Drainer{
		store:  store,
		pool:   pool,
		clock:  clk,
		logger: logger,
	}
}

// Requeue puts up to limit dead letters of one type back in the queue with a
// fresh attempt budget, running immediately. A dedupe collision with a live
// job drops the dead letter as already covered.
func (d *Drainer) Requeue(ctx context.Context, jobType string, limit int32) (int, error) {
	letters, err := d.store.ListDeadLetters(ctx, jobType, limit)
	if err != nil {
		return 0, err
	}

	requeued := 0
	for _, dl := range letters {
		now := d.clock.Now()
		if err := d.store.Enqueue(ctx, d.pool, dl.Type, dl.Payload, now, dl.DedupeKey); err != nil {
			d.logger.Error("failed to requeue dead letter",
				"type", dl.Type, "dead_letter_id", dl.ID, "error", err)
			continue
		}
		if err := d.store.DeleteDeadLetter(ctx, dl.ID); err != nil {
			d.logger.Error("failed to delete drained dead letter",
				"type", dl.Type, "dead_letter_id", dl.ID, "error", err)
			continue
		}
		d.logger.Info("dead letter requeued",
			"type", dl.Type, "dead_letter_id", dl.ID, "job_id", dl.JobID)
		requeued++
	}
	return requeued, nil
}
