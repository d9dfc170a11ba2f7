package response

import (
	"time"

	"bike-reserve/internal/domain/reservation"
	"bike-reserve/internal/usecase/commands"
	"bike-reserve/internal/usecase/queries"

	"github.com/google/uuid"
)

type ReservationResponse struct {
	ID             uuid.UUID  `json:"id"`
	UserID         uuid.UUID  `json:"userId"`
	StationID      uuid.UUID  `json:"stationId"`
	BikeID         *uuid.UUID `json:"bikeId,omitempty"`
	Option         string     `json:"option"`
	TemplateID     *uuid.UUID `json:"templateId,omitempty"`
	SubscriptionID *uuid.UUID `json:"subscriptionId,omitempty"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	PrepaidCents   int64      `json:"prepaidCents"`
	Status         string     `json:"status"`
	CancelReason   *string    `json:"cancelReason,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func FromReservation(res *reservation.Reservation) *ReservationResponse {
	return &ReservationResponse{
		ID:             res.ID(),
		UserID:         res.UserID(),
		StationID:      res.StationID(),
		BikeID:         res.BikeID(),
		Option:         string(res.ReservationOption()),
		TemplateID:     res.TemplateID(),
		SubscriptionID: res.SubscriptionID(),
		StartTime:      res.StartTime(),
		EndTime:        res.EndTime(),
		PrepaidCents:   res.Prepaid().Cents(),
		Status:         string(res.Status()),
		CancelReason:   res.CancelReason(),
		CreatedAt:      res.CreatedAt(),
		UpdatedAt:      res.UpdatedAt(),
	}
}

func FromReservationView(view *queries.ReservationView) *ReservationResponse {
	return &ReservationResponse{
		ID:             view.ID,
		UserID:         view.UserID,
		StationID:      view.StationID,
		BikeID:         view.BikeID,
		Option:         view.Option,
		TemplateID:     view.TemplateID,
		SubscriptionID: view.SubscriptionID,
		StartTime:      view.StartTime,
		EndTime:        view.EndTime,
		PrepaidCents:   view.PrepaidCents,
		Status:         view.Status,
		CancelReason:   view.CancelReason,
		CreatedAt:      view.CreatedAt,
		UpdatedAt:      view.UpdatedAt,
	}
}

// TransitionResponse reports a confirm/cancel attempt. Applied=false means
// another writer already moved the reservation; Status names the state that won.
type TransitionResponse struct {
	Applied bool   `json:"applied"`
	Status  string `json:"status"`
}

func FromTransitionOutcome(outcome commands.TransitionOutcome) TransitionResponse {
	return TransitionResponse{
		Applied: outcome.Applied,
		Status:  string(outcome.Status),
	}
}
