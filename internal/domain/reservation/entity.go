package reservation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrTemplateRefRequired     = errors.New("fixed-slot reservation requires a template reference")
	ErrSubscriptionRefRequired = errors.New("subscription reservation requires a subscription reference")
	ErrInvalidTimeWindow       = errors.New("end time must be after start time")
	ErrNegativePrepaid         = errors.New("prepaid amount cannot be negative")
	ErrNotPending              = errors.New("reservation is not pending")
	ErrNotDue                  = errors.New("reservation hold has not ended yet")
	ErrInvalidStatus           = errors.New("invalid reservation status")
)

// Reservation is a claim on a bike or station slot. It is created PENDING
// and moves exactly once into CONFIRMED, CANCELLED or EXPIRED.
type Reservation struct {
	id             uuid.UUID
	userID         uuid.UUID
	stationID      uuid.UUID
	bikeID         *uuid.UUID
	option         Option
	templateID     *uuid.UUID
	subscriptionID *uuid.UUID
	startTime      time.Time
	endTime        *time.Time
	prepaid        Money
	holdRef        *string
	status         Status
	cancelReason   *string
	notifiedAt     *time.Time
	slotKey        *string
	createdAt      time.Time
	updatedAt      time.Time
}

func newReservation(
	userID, stationID uuid.UUID,
	bikeID *uuid.UUID,
	option Option,
	templateID, subscriptionID *uuid.UUID,
	startTime time.Time,
	endTime *time.Time,
	prepaid Money,
	holdRef *string,
	slotKey *string,
	now time.Time,
) (*Reservation, error) {
	if option == OptionFixedSlot && templateID == nil {
		return nil, ErrTemplateRefRequired
	}
	if option == OptionSubscription && subscriptionID == nil {
		return nil, ErrSubscriptionRefRequired
	}
	if endTime != nil && !endTime.After(startTime) {
		return nil, ErrInvalidTimeWindow
	}

	return &Reservation{
		id:             uuid.New(),
		userID:         userID,
		stationID:      stationID,
		bikeID:         bikeID,
		option:         option,
		templateID:     templateID,
		subscriptionID: subscriptionID,
		startTime:      startTime,
		endTime:        endTime,
		prepaid:        prepaid,
		holdRef:        holdRef,
		status:         StatusPending,
		slotKey:        slotKey,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

func ReconstructReservation(
	id, userID, stationID uuid.UUID,
	bikeID *uuid.UUID,
	option Option,
	templateID, subscriptionID *uuid.UUID,
	startTime time.Time,
	endTime *time.Time,
	prepaid Money,
	holdRef *string,
	status Status,
	cancelReason *string,
	notifiedAt *time.Time,
	slotKey *string,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:             id,
		userID:         userID,
		stationID:      stationID,
		bikeID:         bikeID,
		option:         option,
		templateID:     templateID,
		subscriptionID: subscriptionID,
		startTime:      startTime,
		endTime:        endTime,
		prepaid:        prepaid,
		holdRef:        holdRef,
		status:         status,
		cancelReason:   cancelReason,
		notifiedAt:     notifiedAt,
		slotKey:        slotKey,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// Confirm marks physical pickup. Legal only from PENDING; the storage layer
// enforces the same guard with a conditional update so racing writers cannot
// both win.
func (r *Reservation) Confirm(now time.Time) error {
	if r.status != StatusPending {
		return ErrNotPending
	}
	r.status = StatusConfirmed
	r.updatedAt = now
	return nil
}

func (r *Reservation) Cancel(reason string, now time.Time) error {
	if r.status != StatusPending {
		return ErrNotPending
	}
	r.status = StatusCancelled
	r.cancelReason = &reason
	r.updatedAt = now
	return nil
}

// Expire is legal only from PENDING once the hold window has passed.
func (r *Reservation) Expire(now time.Time) error {
	if r.status != StatusPending {
		return ErrNotPending
	}
	if r.endTime == nil || now.Before(*r.endTime) {
		return ErrNotDue
	}
	r.status = StatusExpired
	r.updatedAt = now
	return nil
}

func (r *Reservation) MarkNotified(now time.Time) {
	r.notifiedAt = &now
	r.updatedAt = now
}

func (r *Reservation) IsPending() bool {
	return r.status == StatusPending
}

// EndsWithin reports whether the hold deadline falls inside the window
// starting at now. Reservations without a deadline never qualify.
func (r *Reservation) EndsWithin(now time.Time, window time.Duration) bool {
	if r.endTime == nil {
		return false
	}
	return !r.endTime.After(now.Add(window))
}

func (r *Reservation) WasNotified() bool {
	return r.notifiedAt != nil
}

func (r *Reservation) ID() uuid.UUID              { return r.id }
func (r *Reservation) UserID() uuid.UUID          { return r.userID }
func (r *Reservation) StationID() uuid.UUID       { return r.stationID }
func (r *Reservation) BikeID() *uuid.UUID         { return r.bikeID }
func (r *Reservation) ReservationOption() Option  { return r.option }
func (r *Reservation) TemplateID() *uuid.UUID     { return r.templateID }
func (r *Reservation) SubscriptionID() *uuid.UUID { return r.subscriptionID }
func (r *Reservation) StartTime() time.Time       { return r.startTime }
func (r *Reservation) EndTime() *time.Time        { return r.endTime }
func (r *Reservation) Prepaid() Money             { return r.prepaid }
func (r *Reservation) HoldRef() *string           { return r.holdRef }
func (r *Reservation) Status() Status             { return r.status }
func (r *Reservation) CancelReason() *string      { return r.cancelReason }
func (r *Reservation) NotifiedAt() *time.Time     { return r.notifiedAt }
func (r *Reservation) SlotKey() *string           { return r.slotKey }
func (r *Reservation) CreatedAt() time.Time       { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time       { return r.updatedAt }
