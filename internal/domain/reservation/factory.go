package reservation

import (
	"fmt"
	"time"

	"bike-reserve/internal/pkg/clock"

	"github.com/google/uuid"
)

type Factory struct {
	Clock        clock.Clock
	HoldDuration time.Duration
}

func NewFactory(clk clock.Clock, holdDuration time.Duration) *Factory {
	return &Factory{
		Clock:        clk,
		HoldDuration: holdDuration,
	}
}

// NewOneTime builds a PENDING one-time reservation. When no explicit end is
// given the hold deadline is start + HoldDuration, computed once here and
// never recomputed.
func (f *Factory) NewOneTime(
	userID, stationID uuid.UUID,
	bikeID *uuid.UUID,
	startTime time.Time,
	endTime *time.Time,
	prepaid Money,
	holdRef *string,
) (*Reservation, error) {
	if endTime == nil {
		end := startTime.Add(f.HoldDuration)
		endTime = &end
	}
	return newReservation(
		userID, stationID, bikeID,
		OptionOneTime, nil, nil,
		startTime, endTime, prepaid, holdRef, nil,
		f.Clock.Now(),
	)
}

// NewFixedSlot builds a PENDING fixed-slot reservation. The slot key makes
// creation idempotent per template+date via the storage-level unique index.
// Engine-produced slots carry no prepaid; user-booked ones pass the hold
// placed during reserve so cancel and expire can release it.
func (f *Factory) NewFixedSlot(
	userID, stationID, bikeID, templateID uuid.UUID,
	startTime, endTime, slotDate time.Time,
	prepaid Money,
	holdRef *string,
) (*Reservation, error) {
	slotKey := FixedSlotKey(templateID, slotDate)
	return newReservation(
		userID, stationID, &bikeID,
		OptionFixedSlot, &templateID, nil,
		startTime, &endTime, prepaid, holdRef, &slotKey,
		f.Clock.Now(),
	)
}

func (f *Factory) NewSubscription(
	userID, stationID uuid.UUID,
	bikeID *uuid.UUID,
	subscriptionID uuid.UUID,
	startTime time.Time,
	endTime *time.Time,
	prepaid Money,
	holdRef *string,
) (*Reservation, error) {
	return newReservation(
		userID, stationID, bikeID,
		OptionSubscription, nil, &subscriptionID,
		startTime, endTime, prepaid, holdRef, nil,
		f.Clock.Now(),
	)
}

func FixedSlotKey(templateID uuid.UUID, slotDate time.Time) string {
	return fmt.Sprintf("%s:%s", templateID, slotDate.Format("2006-01-02"))
}
