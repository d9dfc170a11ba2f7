package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"bike-reserve/internal/infra/outbox"
	"bike-reserve/internal/pkg/errs"
	"bike-reserve/internal/usecase/commands"
)

// Handlers binds each job type to the use case that serves it.
type Handlers struct {
	reservations commands.ReservationCommands
	engine       *commands.AssignmentEngine
	wallet       commands.Wallet
	triggers     *Triggers
	logger       *slog.Logger
}

func NewHandlers(
	reservations commands.ReservationCommands,
	engine *commands.AssignmentEngine,
	wallet commands.Wallet,
	triggers *Triggers,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		reservations: reservations,
		engine:       engine,
		wallet:       wallet,
		triggers:     triggers,
		logger:       logger,
	}
}

// RegisterAll wires every job type into the dispatcher with its retry budget.
func (h *Handlers) RegisterAll(d *Dispatcher, policies map[string]RetryPolicy) {
	d.Register(commands.JobTypeReservationExpire, h.handleExpire, policies[commands.JobTypeReservationExpire])
	d.Register(commands.JobTypeExpirySweep, h.handleSweep, policies[commands.JobTypeExpirySweep])
	d.Register(commands.JobTypeNearExpiryNotify, h.handleNotify, policies[commands.JobTypeNearExpiryNotify])
	d.Register(commands.JobTypeFixedSlotAssign, h.handleAssign, policies[commands.JobTypeFixedSlotAssign])
	d.Register(commands.JobTypeWalletRelease, h.handleWalletRelease, policies[commands.JobTypeWalletRelease])
	d.Register(commands.JobTypeWalletDebit, h.handleWalletDebit, policies[commands.JobTypeWalletDebit])
}

func (h *Handlers) handleExpire(ctx context.Context, job outbox.Job) error {
	var p commands.ExpireReservationPayload
	if err := decodePayload(job, &p); err != nil {
		return err
	}
	outcome, err := h.reservations.Expire(ctx, p.ReservationID)
	if err != nil {
		// The row is gone entirely; there is nothing left to expire.
		if errors.Is(err, errs.ErrReservationNotFound) {
			h.logger.Warn("expiry target no longer exists", "reservation_id", p.ReservationID)
			return nil
		}
		return err
	}
	if !outcome.Applied {
		h.logger.Debug("expiry was a no-op",
			"reservation_id", p.ReservationID, "status", outcome.Status)
	}
	return nil
}

func (h *Handlers) handleSweep(ctx context.Context, job outbox.Job) error {
	var p commands.TriggerPayload
	if err := decodePayload(job, &p); err != nil {
		return err
	}
	expired, err := h.reservations.SweepExpired(ctx)
	if err != nil {
		return err
	}
	if expired > 0 {
		h.logger.Info("expiry sweep caught overdue reservations", "count", expired)
	}
	return h.triggers.ScheduleNextSweep(ctx, job.RunAt)
}

func (h *Handlers) handleNotify(ctx context.Context, job outbox.Job) error {
	var p commands.TriggerPayload
	if err := decodePayload(job, &p); err != nil {
		return err
	}
	if _, err := h.reservations.NotifyNearExpiry(ctx); err != nil {
		return err
	}
	return h.triggers.ScheduleNextNotify(ctx, job.RunAt)
}

func (h *Handlers) handleAssign(ctx context.Context, job outbox.Job) error {
	var p commands.FixedSlotAssignPayload
	if err := decodePayload(job, &p); err != nil {
		return err
	}
	slotDate, err := h.triggers.SlotDate(p.SlotDate)
	if err != nil {
		return Fatal(err)
	}
	if _, err := h.engine.RunDaily(ctx, slotDate); err != nil {
		return err
	}
	return h.triggers.ScheduleNextAssignment(ctx, job.RunAt)
}

func (h *Handlers) handleWalletRelease(ctx context.Context, job outbox.Job) error {
	var p commands.WalletReleasePayload
	if err := decodePayload(job, &p); err != nil {
		return err
	}
	return h.wallet.ReleaseHold(ctx, p.HoldRef)
}

func (h *Handlers) handleWalletDebit(ctx context.Context, job outbox.Job) error {
	var p commands.WalletDebitPayload
	if err := decodePayload(job, &p); err != nil {
		return err
	}
	return h.wallet.Debit(ctx, p.UserID, p.AmountCents, p.Reference)
}

// Payloads are validated at enqueue, so a decode failure here means the row
// was corrupted or the schema drifted; retrying cannot fix either.
func decodePayload(job outbox.Job, v any) error {
	dec := json.NewDecoder(bytes.NewReader(job.Payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return Fatal(errs.Wrap(err, "corrupt job payload"))
	}
	return nil
}
