package response

import (
	"time"

	"bike-reserve/internal/domain/fixedslot"
	"bike-reserve/internal/usecase/queries"

	"github.com/google/uuid"
)

type TemplateResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	StationID uuid.UUID `json:"stationId"`
	SlotStart string    `json:"slotStart"`
	SlotEnd   string    `json:"slotEnd"`
	Days      []int     `json:"days"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func FromTemplate(tpl *fixedslot.Template) *TemplateResponse {
	return &TemplateResponse{
		ID:        tpl.ID(),
		UserID:    tpl.UserID(),
		StationID: tpl.StationID(),
		SlotStart: tpl.SlotStart().String(),
		SlotEnd:   tpl.SlotEnd().String(),
		Days:      tpl.Days().Days(),
		StartDate: tpl.StartDate(),
		EndDate:   tpl.EndDate(),
		Status:    string(tpl.Status()),
		CreatedAt: tpl.CreatedAt(),
		UpdatedAt: tpl.UpdatedAt(),
	}
}

func FromTemplateView(view *queries.TemplateView) *TemplateResponse {
	return &TemplateResponse{
		ID:        view.ID,
		UserID:    view.UserID,
		StationID: view.StationID,
		SlotStart: view.SlotStart,
		SlotEnd:   view.SlotEnd,
		Days:      view.Days,
		StartDate: view.StartDate,
		EndDate:   view.EndDate,
		Status:    view.Status,
		CreatedAt: view.CreatedAt,
		UpdatedAt: view.UpdatedAt,
	}
}
