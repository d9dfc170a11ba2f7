package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"bike-reserve/internal/domain/reservation"
	"bike-reserve/internal/infra"
	"bike-reserve/internal/infra/db"
	"bike-reserve/internal/pkg/clock"
	"bike-reserve/internal/pkg/config"
	"bike-reserve/internal/pkg/errs"
	"bike-reserve/internal/usecase/shared"

	"github.com/google/uuid"
)

const BikeStatusAvailable = "available"

// transitionTxRetries bounds automatic reruns of the conditional-transition
// transactions when Postgres reports a serialization failure or deadlock.
const transitionTxRetries = 3

// Actor identifies who issues a user-facing operation. Authentication is an
// external capability; the engine only checks ownership and the staff flag.
type Actor struct {
	UserID  uuid.UUID
	IsStaff bool
}

type ReserveParams struct {
	UserID         uuid.UUID
	StationID      uuid.UUID
	BikeID         *uuid.UUID
	Option         reservation.Option
	TemplateID     *uuid.UUID
	SubscriptionID *uuid.UUID
	StartTime      time.Time
	EndTime        *time.Time
	PrepaidCents   int64
}

// TransitionOutcome reports a confirm/cancel/expire attempt. A lost race is
// Applied=false with the status that won, never an error.
type TransitionOutcome struct {
	Applied bool
	Status  reservation.Status
}

type ReservationCommands interface {
	Reserve(ctx context.Context, params ReserveParams) (*reservation.Reservation, error)
	Confirm(ctx context.Context, actor Actor, id uuid.UUID) (TransitionOutcome, error)
	Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason string) (TransitionOutcome, error)
	Expire(ctx context.Context, id uuid.UUID) (TransitionOutcome, error)
	NotifyNearExpiry(ctx context.Context) (int, error)
	SweepExpired(ctx context.Context) (int, error)
	ScheduleWalletDebit(ctx context.Context, userID uuid.UUID, amountCents int64, reference string, runAt time.Time) error
}

type reservationCommandsImpl struct {
	repo         ReservationRepository
	templateRepo TemplateRepository
	outbox       OutboxEnqueuer
	wallet       Wallet
	notifier     Notifier
	catalog      BikeCatalog
	publisher    Publisher
	factory      *reservation.Factory
	pool         db.Pool
	clock        clock.Clock
	cfg          config.ReservationConfig
	logger       *slog.Logger
}

func NewReservationCommands(
	repo ReservationRepository,
	templateRepo TemplateRepository,
	outbox OutboxEnqueuer,
	wallet Wallet,
	notifier Notifier,
	catalog BikeCatalog,
	publisher Publisher,
	factory *reservation.Factory,
	pool db.Pool,
	clk clock.Clock,
	cfg config.ReservationConfig,
	logger *slog.Logger,
) ReservationCommands {
	return &reservationCommandsImpl{
		repo:         repo,
		templateRepo: templateRepo,
		outbox:       outbox,
		wallet:       wallet,
		notifier:     notifier,
		catalog:      catalog,
		publisher:    publisher,
		factory:      factory,
		pool:         pool,
		clock:        clk,
		cfg:          cfg,
		logger:       logger,
	}
}

// Reserve places the prepaid hold first (insufficient balance fails fast),
// then atomically inserts the PENDING reservation together with its
// expiry-sweep job. The job row only exists if the reservation committed.
func (r *reservationCommandsImpl) Reserve(ctx context.Context, params ReserveParams) (*reservation.Reservation, error) {
	prepaid, err := reservation.NewMoney(params.PrepaidCents)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	if params.Option == reservation.OptionFixedSlot {
		if err := r.validateTemplateRef(ctx, params.UserID, params.TemplateID); err != nil {
			return nil, err
		}
	}

	var holdRef *string
	if !prepaid.IsZero() {
		ref, err := r.wallet.PlaceHold(ctx, params.UserID, prepaid.Cents())
		if err != nil {
			return nil, err
		}
		holdRef = &ref
	}

	entity, err := r.buildReservation(params, prepaid, holdRef)
	if err != nil {
		r.compensateHold(ctx, holdRef)
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	created, err := shared.RunInTx(ctx, r.pool, func(tx db.DBTX) (*reservation.Reservation, error) {
		if err := r.repo.Create(ctx, tx, entity); err != nil {
			return nil, err
		}
		if err := enqueueExpiryJob(ctx, tx, r.outbox, entity); err != nil {
			return nil, err
		}
		return entity, nil
	})
	if err != nil {
		r.compensateHold(ctx, holdRef)
		if infra.IsKind(err, infra.KindDuplicateKey) || infra.IsKind(err, infra.KindConflict) {
			return nil, errs.Mark(err, errs.ErrReservationConflict)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	return created, nil
}

func (r *reservationCommandsImpl) buildReservation(params ReserveParams, prepaid reservation.Money, holdRef *string) (*reservation.Reservation, error) {
	switch params.Option {
	case reservation.OptionOneTime:
		return r.factory.NewOneTime(params.UserID, params.StationID, params.BikeID, params.StartTime, params.EndTime, prepaid, holdRef)
	case reservation.OptionSubscription:
		if params.SubscriptionID == nil {
			return nil, reservation.ErrSubscriptionRefRequired
		}
		return r.factory.NewSubscription(params.UserID, params.StationID, params.BikeID, *params.SubscriptionID, params.StartTime, params.EndTime, prepaid, holdRef)
	case reservation.OptionFixedSlot:
		if params.TemplateID == nil || params.BikeID == nil || params.EndTime == nil {
			return nil, reservation.ErrTemplateRefRequired
		}
		return r.factory.NewFixedSlot(params.UserID, params.StationID, *params.BikeID, *params.TemplateID, params.StartTime, *params.EndTime, params.StartTime, prepaid, holdRef)
	default:
		return nil, reservation.ErrInvalidStatus
	}
}

func (r *reservationCommandsImpl) validateTemplateRef(ctx context.Context, userID uuid.UUID, templateID *uuid.UUID) error {
	if templateID == nil {
		return errs.Mark(reservation.ErrTemplateRefRequired, errs.ErrDomainValidation)
	}
	tpl, err := r.templateRepo.FindByID(ctx, *templateID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return errs.Mark(err, errs.ErrTemplateNotFound)
		}
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if !tpl.IsOwnedBy(userID) {
		return errs.ErrNotTemplateOwner
	}
	if !tpl.IsActive() {
		return errs.ErrTemplateNotActive
	}
	return nil
}

// enqueueExpiryJob schedules the per-reservation expiry, keyed by the
// reservation id, at its hold deadline. Reservations without a deadline get
// no job; the backstop sweep cannot expire them either.
func enqueueExpiryJob(ctx context.Context, tx db.DBTX, outbox OutboxEnqueuer, res *reservation.Reservation) error {
	if res.EndTime() == nil {
		return nil
	}
	payload, err := json.Marshal(ExpireReservationPayload{ReservationID: res.ID()})
	if err != nil {
		return errs.Wrap(err, "failed to marshal expiry payload")
	}
	dedupe := res.ID().String()
	return outbox.Enqueue(ctx, tx, JobTypeReservationExpire, payload, *res.EndTime(), &dedupe)
}

// compensateHold undoes a wallet hold when the reservation insert failed
// after the hold was placed. Best effort; a leaked hold is logged.
func (r *reservationCommandsImpl) compensateHold(ctx context.Context, holdRef *string) {
	if holdRef == nil {
		return
	}
	if err := r.wallet.ReleaseHold(ctx, *holdRef); err != nil {
		r.logger.Error("failed to release orphaned wallet hold",
			"hold_ref", *holdRef, "error", err)
	}
}

func (r *reservationCommandsImpl) Confirm(ctx context.Context, actor Actor, id uuid.UUID) (TransitionOutcome, error) {
	res, err := r.findOwned(ctx, actor, id)
	if err != nil {
		return TransitionOutcome{}, err
	}

	now := r.clock.Now()
	result, err := r.repo.ConfirmIfPending(ctx, r.pool, id, now)
	if err != nil {
		return TransitionOutcome{}, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if result != nil {
		return TransitionOutcome{Applied: true, Status: reservation.StatusConfirmed}, nil
	}
	return r.lostRaceOutcome(ctx, id, res.Status())
}

// Cancel releases the prepaid hold through the outbox, in the same
// transaction as the status flip, so a crash between the two cannot leak
// the hold. The pending per-reservation expiry job is left alone; it
// no-ops when it fires.
func (r *reservationCommandsImpl) Cancel(ctx context.Context, actor Actor, id uuid.UUID, reason string) (TransitionOutcome, error) {
	res, err := r.findOwned(ctx, actor, id)
	if err != nil {
		return TransitionOutcome{}, err
	}

	now := r.clock.Now()
	result, err := shared.RunInTxWithRetry(ctx, r.pool, transitionTxRetries, func(tx db.DBTX) (*TransitionResult, error) {
		result, err := r.repo.CancelIfPending(ctx, tx, id, reason, now)
		if err != nil {
			return nil, err
		}
		if result != nil && result.HoldRef != nil {
			if err := r.enqueueHoldRelease(ctx, tx, id, *result.HoldRef, now); err != nil {
				return nil, err
			}
		}
		return result, nil
	})
	if err != nil {
		return TransitionOutcome{}, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if result != nil {
		return TransitionOutcome{Applied: true, Status: reservation.StatusCancelled}, nil
	}
	return r.lostRaceOutcome(ctx, id, res.Status())
}

// Expire is invoked only by the sweep machinery, never by user-facing code.
// Duplicate deliveries and races with confirm/cancel resolve through the
// conditional update: the loser sees a no-op.
func (r *reservationCommandsImpl) Expire(ctx context.Context, id uuid.UUID) (TransitionOutcome, error) {
	res, err := r.repo.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return TransitionOutcome{}, errs.Mark(err, errs.ErrReservationNotFound)
		}
		return TransitionOutcome{}, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	now := r.clock.Now()
	if res.IsPending() && (res.EndTime() == nil || now.Before(*res.EndTime())) {
		// Not yet due; the backstop sweep delivered early.
		return TransitionOutcome{Applied: false, Status: res.Status()}, nil
	}

	result, err := shared.RunInTxWithRetry(ctx, r.pool, transitionTxRetries, func(tx db.DBTX) (*TransitionResult, error) {
		result, err := r.repo.ExpireIfPending(ctx, tx, id, now)
		if err != nil {
			return nil, err
		}
		if result != nil && result.HoldRef != nil {
			if err := r.enqueueHoldRelease(ctx, tx, id, *result.HoldRef, now); err != nil {
				return nil, err
			}
		}
		return result, nil
	})
	if err != nil {
		return TransitionOutcome{}, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	applied := result != nil
	// Free the bike even on a re-delivered expiry whose first run crashed
	// between the status flip and this call; marking an available bike
	// available again is harmless.
	if applied || res.Status() == reservation.StatusExpired {
		if err := r.releaseBike(ctx, res.ID(), res.BikeID()); err != nil {
			return TransitionOutcome{}, err
		}
	}

	if applied {
		return TransitionOutcome{Applied: true, Status: reservation.StatusExpired}, nil
	}
	return r.lostRaceOutcome(ctx, id, res.Status())
}

func (r *reservationCommandsImpl) releaseBike(ctx context.Context, reservationID uuid.UUID, bikeID *uuid.UUID) error {
	if bikeID == nil {
		return nil
	}
	if err := r.catalog.MarkBikeStatus(ctx, *bikeID, BikeStatusAvailable); err != nil {
		return errs.Wrap(err, "failed to release bike")
	}
	publishBikeStatus(ctx, r.publisher, r.logger, BikeStatusEvent{
		BikeID:        *bikeID,
		ReservationID: reservationID,
		Status:        BikeStatusAvailable,
		OccurredAt:    r.clock.Now(),
	})
	return nil
}

// publishBikeStatus is fire-and-forget; realtime consumers tolerate gaps.
func publishBikeStatus(ctx context.Context, publisher Publisher, logger *slog.Logger, event BikeStatusEvent) {
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish bike status event",
			"bike_id", event.BikeID, "status", event.Status, "error", err)
	}
}

func (r *reservationCommandsImpl) enqueueHoldRelease(ctx context.Context, tx db.DBTX, reservationID uuid.UUID, holdRef string, now time.Time) error {
	payload, err := json.Marshal(WalletReleasePayload{ReservationID: reservationID, HoldRef: holdRef})
	if err != nil {
		return errs.Wrap(err, "failed to marshal hold-release payload")
	}
	dedupe := "wallet.release:" + reservationID.String()
	return r.outbox.Enqueue(ctx, tx, JobTypeWalletRelease, payload, now, &dedupe)
}

// NotifyNearExpiry messages owners of PENDING reservations whose deadline
// falls inside the notification window and marks them notified. A send
// failure skips the mark so the next run retries it.
func (r *reservationCommandsImpl) NotifyNearExpiry(ctx context.Context) (int, error) {
	now := r.clock.Now()
	pending, err := r.repo.ListPendingEndingWithin(ctx, now, now.Add(r.cfg.NotifyWindow), 500)
	if err != nil {
		return 0, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	notified := 0
	for _, res := range pending {
		if res.WasNotified() {
			continue
		}
		remaining := res.EndTime().Sub(now).Round(time.Minute)
		msg := fmt.Sprintf("Your bike reservation expires in %s. Confirm pickup to keep it.", remaining)
		if err := r.notifier.Notify(ctx, res.UserID(), msg); err != nil {
			r.logger.Warn("near-expiry notification failed",
				"reservation_id", res.ID(), "user_id", res.UserID(), "error", err)
			continue
		}
		if err := r.repo.MarkNotified(ctx, res.ID(), now); err != nil {
			r.logger.Warn("failed to mark reservation notified",
				"reservation_id", res.ID(), "error", err)
			continue
		}
		notified++
	}
	return notified, nil
}

// SweepExpired is the backstop for per-reservation expiry jobs that were
// lost. A failure on one reservation does not stop the sweep.
func (r *reservationCommandsImpl) SweepExpired(ctx context.Context) (int, error) {
	now := r.clock.Now()
	overdue, err := r.repo.ListPendingEndedBefore(ctx, now, 500)
	if err != nil {
		return 0, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	expired := 0
	for _, res := range overdue {
		outcome, err := r.Expire(ctx, res.ID())
		if err != nil {
			r.logger.Error("sweep failed to expire reservation",
				"reservation_id", res.ID(), "error", err)
			continue
		}
		if outcome.Applied {
			expired++
		}
	}
	return expired, nil
}

// ScheduleWalletDebit enqueues a wallet withdrawal on the aggressive retry
// policy. Consumed by the rental flow when a confirmed reservation turns
// into a ride.
func (r *reservationCommandsImpl) ScheduleWalletDebit(ctx context.Context, userID uuid.UUID, amountCents int64, reference string, runAt time.Time) error {
	payload, err := json.Marshal(WalletDebitPayload{UserID: userID, AmountCents: amountCents, Reference: reference})
	if err != nil {
		return errs.Wrap(err, "failed to marshal wallet-debit payload")
	}
	dedupe := "wallet.debit:" + reference
	_, err = shared.RunInTx(ctx, r.pool, func(tx db.DBTX) (struct{}, error) {
		return struct{}{}, r.outbox.Enqueue(ctx, tx, JobTypeWalletDebit, payload, runAt, &dedupe)
	})
	return err
}

func (r *reservationCommandsImpl) findOwned(ctx context.Context, actor Actor, id uuid.UUID) (*reservation.Reservation, error) {
	res, err := r.repo.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrReservationNotFound)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if res.UserID() != actor.UserID && !actor.IsStaff {
		return nil, errs.ErrNotReservationOwner
	}
	return res, nil
}

// lostRaceOutcome re-reads the row so the caller learns which transition won.
func (r *reservationCommandsImpl) lostRaceOutcome(ctx context.Context, id uuid.UUID, fallback reservation.Status) (TransitionOutcome, error) {
	res, err := r.repo.FindByID(ctx, id)
	if err != nil {
		return TransitionOutcome{Applied: false, Status: fallback}, nil
	}
	return TransitionOutcome{Applied: false, Status: res.Status()}, nil
}
