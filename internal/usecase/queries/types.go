package queries

import (
	"time"

	"github.com/google/uuid"
)

type ReservationView struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	StationID      uuid.UUID
	BikeID         *uuid.UUID
	Option         string
	TemplateID     *uuid.UUID
	SubscriptionID *uuid.UUID
	StartTime      time.Time
	EndTime        *time.Time
	PrepaidCents   int64
	Status         string
	CancelReason   *string
	NotifiedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type TemplateView struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	StationID uuid.UUID
	SlotStart string
	SlotEnd   string
	Days      []int
	StartDate time.Time
	EndDate   time.Time
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
