package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"bike-reserve/internal/infra/outbox"
	"bike-reserve/internal/pkg/clock"
	"bike-reserve/internal/pkg/config"
	"bike-reserve/internal/pkg/errs"

	"github.com/google/uuid"
)

// Handler executes one claimed job. Returning nil completes the job; a plain
// error schedules a retry; an error marked Fatal parks the job in the
// dead-letter queue immediately.
type Handler func(ctx context.Context, job outbox.Job) error

var errFatal = errs.New("permanent job failure")

// Fatal marks err so the dispatcher dead-letters the job instead of retrying.
func Fatal(err error) error {
	return errs.Mark(err, errFatal)
}

func IsFatal(err error) bool {
	return errors.Is(err, errFatal)
}

// JobStore is the slice of the outbox the dispatcher drives.
type JobStore interface {
	ClaimDue(ctx context.Context, jobType string, limit int32, staleAfter time.Duration, now time.Time) ([]outbox.Job, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, now time.Time) error
	Reschedule(ctx context.Context, id uuid.UUID, runAt time.Time, lastError string, now time.Time) error
	MoveToDeadLetter(ctx context.Context, job outbox.Job, reason string, now time.Time) error
}

type registration struct {
	handler Handler
	policy  RetryPolicy
}

// Dispatcher polls the outbox and executes due jobs, one claim loop per
// registered job type so a slow type cannot starve the others.
type Dispatcher struct {
	store  JobStore
	cfg    config.WorkerConfig
	clock  clock.Clock
	logger *slog.Logger

	mu   sync.Mutex
	regs map[string]registration
}

func NewDispatcher(store JobStore, cfg config.WorkerConfig, clk clock.Clock, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:  store,
		cfg:    cfg,
		clock:  clk,
		logger: logger,
		regs:   make(map[string]registration),
	}
}

func (d *Dispatcher) Register(jobType string, handler Handler, policy RetryPolicy) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regs[jobType] = registration{handler: handler, policy: policy}
}

// Run blocks until ctx is cancelled, then waits for in-flight jobs to finish.
func (d *Dispatcher) Run(ctx context.Context) {
	d.mu.Lock()
	types := make([]string, 0, len(d.regs))
	for jobType := range d.regs {
		types = append(types, jobType)
	}
	d.mu.Unlock()

	var wg sync.WaitGroup
	for _, jobType := range types {
		wg.Add(1)
		go func(jobType string) {
			defer wg.Done()
			d.pollLoop(ctx, jobType)
		}(jobType)
	}
	wg.Wait()
}

func (d *Dispatcher) pollLoop(ctx context.Context, jobType string) {
	d.logger.Info("job loop started", "type", jobType, "poll_interval", d.cfg.PollInterval)
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("job loop stopped", "type", jobType)
			return
		case <-ticker.C:
			d.tick(ctx, jobType)
		}
	}
}

func (d *Dispatcher) tick(ctx context.Context, jobType string) {
	d.mu.Lock()
	reg, ok := d.regs[jobType]
	d.mu.Unlock()
	if !ok {
		return
	}

	// A claim older than the execution timeout belongs to a crashed worker
	// and is safe to take over.
	jobs, err := d.store.ClaimDue(ctx, jobType, d.cfg.BatchSize, d.cfg.ExecutionTimeout, d.clock.Now())
	if err != nil {
		d.logger.Error("failed to claim jobs", "type", jobType, "error", err)
		return
	}
	for _, job := range jobs {
		d.execute(ctx, job, reg)
	}
}

func (d *Dispatcher) execute(ctx context.Context, job outbox.Job, reg registration) {
	execCtx, cancel := context.WithTimeout(ctx, d.cfg.ExecutionTimeout)
	defer cancel()

	err := d.runHandler(execCtx, job, reg.handler)
	now := d.clock.Now()

	switch {
	case err == nil:
		if markErr := d.store.MarkCompleted(ctx, job.ID, now); markErr != nil {
			// The claim goes stale and the job reruns; handlers are idempotent.
			d.logger.Error("failed to mark job completed",
				"type", job.Type, "job_id", job.ID, "error", markErr)
		}
	case IsFatal(err):
		d.deadLetter(ctx, job, fmt.Sprintf("permanent failure: %v", err), now)
	case int(job.AttemptCount) >= reg.policy.MaxAttempts:
		d.deadLetter(ctx, job, fmt.Sprintf("retries exhausted after %d attempts: %v", job.AttemptCount, err), now)
	default:
		delay := reg.policy.NextDelay(job.AttemptCount)
		d.logger.Warn("job failed, retrying",
			"type", job.Type, "job_id", job.ID,
			"attempt", job.AttemptCount, "max_attempts", reg.policy.MaxAttempts,
			"retry_in", delay, "error", err)
		if rsErr := d.store.Reschedule(ctx, job.ID, now.Add(delay), err.Error(), now); rsErr != nil {
			d.logger.Error("failed to reschedule job",
				"type", job.Type, "job_id", job.ID, "error", rsErr)
		}
	}
}

func (d *Dispatcher) runHandler(ctx context.Context, job outbox.Job, handler Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.New(fmt.Sprintf("handler panic: %v\n%s", r, debug.Stack()))
		}
	}()
	return handler(ctx, job)
}

// deadLetter records the full payload in the log so the job can be rebuilt
// even if the dead-letter row itself is lost.
func (d *Dispatcher) deadLetter(ctx context.Context, job outbox.Job, reason string, now time.Time) {
	d.logger.Error("job moved to dead-letter queue",
		"type", job.Type, "job_id", job.ID,
		"attempts", job.AttemptCount, "payload", string(job.Payload),
		"reason", reason)
	if err := d.store.MoveToDeadLetter(ctx, job, reason, now); err != nil {
		d.logger.Error("failed to move job to dead-letter queue",
			"type", job.Type, "job_id", job.ID, "error", err)
	}
}
