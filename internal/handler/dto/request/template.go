package request

import (
	"time"

	"bike-reserve/internal/usecase/commands"

	"github.com/google/uuid"
)

type CreateTemplateRequest struct {
	StationID uuid.UUID `json:"station_id" binding:"required"`
	SlotStart string    `json:"slot_start" binding:"required"` // HH:MM
	SlotEnd   string    `json:"slot_end" binding:"required"`   // HH:MM
	Days      []int     `json:"days" binding:"required"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
}

func (r CreateTemplateRequest) ToParams(userID uuid.UUID) commands.CreateTemplateParams {
	return commands.CreateTemplateParams{
		UserID:    userID,
		StationID: r.StationID,
		SlotStart: r.SlotStart,
		SlotEnd:   r.SlotEnd,
		Days:      r.Days,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
	}
}
