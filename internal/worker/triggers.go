package worker

import (
	"context"
	"encoding/json"
	"time"

	"bike-reserve/internal/infra/db"
	"bike-reserve/internal/pkg/clock"
	"bike-reserve/internal/pkg/config"
	"bike-reserve/internal/pkg/errs"
	"bike-reserve/internal/usecase/commands"
)

// Triggers owns the three standing jobs: the expiry sweep, the near-expiry
// notifier, and the daily fixed-slot assignment. Each run enqueues its own
// successor as its final step; the dedupe key is derived from the successor's
// scheduled time, so reseeding at boot collapses into a live chain instead of
// forking a second one.
type Triggers struct {
	outbox commands.OutboxEnqueuer
	pool   db.Pool
	cfg    config.ReservationConfig
	clock  clock.Clock
	loc    *time.Location
}

func NewTriggers(
	outbox commands.OutboxEnqueuer,
	pool db.Pool,
	cfg config.ReservationConfig,
	clk clock.Clock,
) (*Triggers, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, errs.Wrap(err, "invalid reservation timezone")
	}
	return &Triggers{
		outbox: outbox,
		pool:   pool,
		cfg:    cfg,
		clock:  clk,
		loc:    loc,
	}, nil
}

// Seed enqueues the first link of each chain. Called once at startup; if the
// chains are already running the dedupe keys make this a no-op.
func (t *Triggers) Seed(ctx context.Context) error {
	now := t.clock.Now()
	if err := t.enqueueInterval(ctx, commands.JobTypeExpirySweep, nextAligned(now, t.cfg.SweepInterval)); err != nil {
		return err
	}
	if err := t.enqueueInterval(ctx, commands.JobTypeNearExpiryNotify, nextAligned(now, t.cfg.NotifyInterval)); err != nil {
		return err
	}
	return t.enqueueAssignment(ctx, t.nextDailyRun(now))
}

// ScheduleNextSweep enqueues the sweep run after the one scheduled at ranAt.
func (t *Triggers) ScheduleNextSweep(ctx context.Context, ranAt time.Time) error {
	return t.enqueueInterval(ctx, commands.JobTypeExpirySweep, t.successor(ranAt, t.cfg.SweepInterval))
}

func (t *Triggers) ScheduleNextNotify(ctx context.Context, ranAt time.Time) error {
	return t.enqueueInterval(ctx, commands.JobTypeNearExpiryNotify, t.successor(ranAt, t.cfg.NotifyInterval))
}

func (t *Triggers) ScheduleNextAssignment(ctx context.Context, ranAt time.Time) error {
	return t.enqueueAssignment(ctx, t.nextDailyRun(ranAt))
}

func (t *Triggers) enqueueInterval(ctx context.Context, jobType string, runAt time.Time) error {
	payload, err := json.Marshal(commands.TriggerPayload{ScheduledFor: runAt})
	if err != nil {
		return errs.Wrap(err, "failed to marshal trigger payload")
	}
	key := triggerDedupeKey(jobType, runAt)
	return t.outbox.Enqueue(ctx, t.pool, jobType, payload, runAt, &key)
}

func (t *Triggers) enqueueAssignment(ctx context.Context, runAt time.Time) error {
	payload, err := json.Marshal(commands.FixedSlotAssignPayload{
		ScheduledFor: runAt,
		SlotDate:     runAt.In(t.loc).Format("2006-01-02"),
	})
	if err != nil {
		return errs.Wrap(err, "failed to marshal assignment payload")
	}
	key := triggerDedupeKey(commands.JobTypeFixedSlotAssign, runAt)
	return t.outbox.Enqueue(ctx, t.pool, commands.JobTypeFixedSlotAssign, payload, runAt, &key)
}

// SlotDate resolves the assignment date for a payload in the engine timezone.
func (t *Triggers) SlotDate(slotDate string) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", slotDate, t.loc)
	if err != nil {
		return time.Time{}, errs.Wrap(err, "invalid slot_date")
	}
	return date, nil
}

// successor advances one interval past ranAt, skipping runs missed during
// downtime; each run covers everything outstanding, so skipped links are
// never replayed.
func (t *Triggers) successor(ranAt time.Time, interval time.Duration) time.Time {
	next := ranAt.Add(interval)
	now := t.clock.Now()
	for !next.After(now) {
		next = next.Add(interval)
	}
	return next
}

func (t *Triggers) nextDailyRun(after time.Time) time.Time {
	local := after.In(t.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), t.cfg.AssignmentHour, 0, 0, 0, t.loc)
	for !next.After(after) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func nextAligned(now time.Time, interval time.Duration) time.Time {
	return now.Truncate(interval).Add(interval)
}

func triggerDedupeKey(jobType string, runAt time.Time) string {
	return jobType + ":" + runAt.UTC().Format(time.RFC3339)
}
