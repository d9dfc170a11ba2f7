package commands

import (
	"context"
	"time"

	"bike-reserve/internal/domain/fixedslot"
	"bike-reserve/internal/domain/reservation"
	"bike-reserve/internal/infra/db"

	"github.com/google/uuid"
)

// Collaborator capabilities consumed by the engine; implemented outside the
// core (internal/infra/collab provides the adapters).

type Wallet interface {
	// PlaceHold reserves funds and returns an opaque hold reference.
	PlaceHold(ctx context.Context, userID uuid.UUID, amountCents int64) (string, error)
	ReleaseHold(ctx context.Context, holdRef string) error
	Debit(ctx context.Context, userID uuid.UUID, amountCents int64, reference string) error
}

type Notifier interface {
	// Notify is fire-and-forget; callers log failures and move on.
	Notify(ctx context.Context, userID uuid.UUID, message string) error
}

type BikeCatalog interface {
	// ListAvailableBikes returns available bike IDs in stable (creation) order.
	ListAvailableBikes(ctx context.Context, stationID uuid.UUID) ([]uuid.UUID, error)
	MarkBikeStatus(ctx context.Context, bikeID uuid.UUID, status string) error
}

// BikeStatusEvent is emitted whenever this engine changes a bike's
// availability, so realtime consumers can push the new status to clients.
type BikeStatusEvent struct {
	BikeID        uuid.UUID
	ReservationID uuid.UUID
	Status        string
	OccurredAt    time.Time
}

// Publisher fans bike-status events out to transports (per-connection
// channels, websockets) that live entirely outside the core. Publishing is
// fire-and-forget; callers log failures and never block a transition on one.
type Publisher interface {
	Publish(ctx context.Context, event BikeStatusEvent) error
}

// TransitionResult carries the columns a winning conditional update returns,
// so the caller can schedule the follow-up side effects.
type TransitionResult struct {
	HoldRef *string
	BikeID  *uuid.UUID
}

type ReservationRepository interface {
	Create(ctx context.Context, tx db.DBTX, res *reservation.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error)

	// The conditional transitions implement first-write-wins: each updates
	// WHERE status = 'pending' and returns nil when the row was already gone
	// from PENDING, which callers report as a no-op.
	ConfirmIfPending(ctx context.Context, tx db.DBTX, id uuid.UUID, now time.Time) (*TransitionResult, error)
	CancelIfPending(ctx context.Context, tx db.DBTX, id uuid.UUID, reason string, now time.Time) (*TransitionResult, error)
	ExpireIfPending(ctx context.Context, tx db.DBTX, id uuid.UUID, now time.Time) (*TransitionResult, error)

	MarkNotified(ctx context.Context, id uuid.UUID, now time.Time) error
	ListPendingEndingWithin(ctx context.Context, from, until time.Time, limit int32) ([]*reservation.Reservation, error)
	ListPendingEndedBefore(ctx context.Context, cutoff time.Time, limit int32) ([]*reservation.Reservation, error)
}

type TemplateRepository interface {
	Create(ctx context.Context, tx db.DBTX, tpl *fixedslot.Template) error
	FindByID(ctx context.Context, id uuid.UUID) (*fixedslot.Template, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status fixedslot.Status, now time.Time) error
	// ListActiveCovering returns ACTIVE templates whose schedule covers the
	// date, ordered by creation time (assignment is first-come-first-assigned).
	ListActiveCovering(ctx context.Context, date time.Time) ([]*fixedslot.Template, error)
}

type OutboxEnqueuer interface {
	Enqueue(ctx context.Context, tx db.DBTX, jobType string, payload []byte, runAt time.Time, dedupeKey *string) error
}
