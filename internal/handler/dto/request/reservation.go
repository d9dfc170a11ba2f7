package request

import (
	"strings"
	"time"

	"bike-reserve/internal/domain/reservation"
	"bike-reserve/internal/usecase/commands"

	"github.com/google/uuid"
)

type CreateReservationRequest struct {
	StationID      uuid.UUID  `json:"station_id" binding:"required"`
	BikeID         *uuid.UUID `json:"bike_id,omitempty"`
	Option         string     `json:"option" binding:"required"`
	TemplateID     *uuid.UUID `json:"template_id,omitempty"`
	SubscriptionID *uuid.UUID `json:"subscription_id,omitempty"`
	StartTime      time.Time  `json:"start_time" binding:"required"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	PrepaidCents   int64      `json:"prepaid_cents"`
}

func (r CreateReservationRequest) ToParams(userID uuid.UUID) commands.ReserveParams {
	return commands.ReserveParams{
		UserID:         userID,
		StationID:      r.StationID,
		BikeID:         r.BikeID,
		Option:         reservation.Option(strings.ToLower(r.Option)),
		TemplateID:     r.TemplateID,
		SubscriptionID: r.SubscriptionID,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		PrepaidCents:   r.PrepaidCents,
	}
}

type CancelReservationRequest struct {
	Reason string `json:"reason"`
}

func (r CancelReservationRequest) GetReason() string {
	return strings.TrimSpace(r.Reason)
}
