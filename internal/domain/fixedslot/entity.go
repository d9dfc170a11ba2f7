package fixedslot

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSlotEndNotAfterStart = errors.New("slot end must be after slot start")
	ErrDateRangeInverted    = errors.New("end date must not be before start date")
	ErrTemplateCancelled    = errors.New("template is cancelled")
	ErrNotPaused            = errors.New("template is not paused")
	ErrNotActive            = errors.New("template is not active")
)

// Template is a recurring booking rule. It is not itself a reservation; the
// assignment engine reads it each day and materializes reservations from it.
type Template struct {
	id        uuid.UUID
	userID    uuid.UUID
	stationID uuid.UUID
	slotStart TimeOfDay
	slotEnd   TimeOfDay
	days      DaySet
	startDate time.Time
	endDate   time.Time
	status    Status
	createdAt time.Time
	updatedAt time.Time
}

func NewTemplate(
	userID, stationID uuid.UUID,
	slotStart, slotEnd TimeOfDay,
	days DaySet,
	startDate, endDate time.Time,
	now time.Time,
) (*Template, error) {
	if !slotStart.Before(slotEnd) {
		return nil, ErrSlotEndNotAfterStart
	}
	if endDate.Before(startDate) {
		return nil, ErrDateRangeInverted
	}

	return &Template{
		id:        uuid.New(),
		userID:    userID,
		stationID: stationID,
		slotStart: slotStart,
		slotEnd:   slotEnd,
		days:      days,
		startDate: truncateToDate(startDate),
		endDate:   truncateToDate(endDate),
		status:    StatusActive,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func ReconstructTemplate(
	id, userID, stationID uuid.UUID,
	slotStart, slotEnd TimeOfDay,
	days DaySet,
	startDate, endDate time.Time,
	status Status,
	createdAt, updatedAt time.Time,
) *Template {
	return &Template{
		id:        id,
		userID:    userID,
		stationID: stationID,
		slotStart: slotStart,
		slotEnd:   slotEnd,
		days:      days,
		startDate: startDate,
		endDate:   endDate,
		status:    status,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// CoversDate reports whether the template schedules a slot on the given
// calendar date.
func (t *Template) CoversDate(date time.Time) bool {
	d := truncateToDate(date)
	if d.Before(t.startDate) || d.After(t.endDate) {
		return false
	}
	return t.days.Contains(d.Weekday())
}

// SlotWindowOn resolves the template's HH:MM window on a concrete date.
func (t *Template) SlotWindowOn(date time.Time) (time.Time, time.Time) {
	return t.slotStart.On(date), t.slotEnd.On(date)
}

// Pause, Resume and Cancel are the only mutations the owner may issue; the
// schedule fields themselves are immutable.

func (t *Template) Pause(now time.Time) error {
	if t.status == StatusCancelled {
		return ErrTemplateCancelled
	}
	if t.status != StatusActive {
		return ErrNotActive
	}
	t.status = StatusPaused
	t.updatedAt = now
	return nil
}

func (t *Template) Resume(now time.Time) error {
	if t.status == StatusCancelled {
		return ErrTemplateCancelled
	}
	if t.status != StatusPaused {
		return ErrNotPaused
	}
	t.status = StatusActive
	t.updatedAt = now
	return nil
}

func (t *Template) Cancel(now time.Time) error {
	if t.status == StatusCancelled {
		return ErrTemplateCancelled
	}
	t.status = StatusCancelled
	t.updatedAt = now
	return nil
}

func (t *Template) IsActive() bool {
	return t.status == StatusActive
}

func (t *Template) IsOwnedBy(userID uuid.UUID) bool {
	return t.userID == userID
}

func (t *Template) ID() uuid.UUID        { return t.id }
func (t *Template) UserID() uuid.UUID    { return t.userID }
func (t *Template) StationID() uuid.UUID { return t.stationID }
func (t *Template) SlotStart() TimeOfDay { return t.slotStart }
func (t *Template) SlotEnd() TimeOfDay   { return t.slotEnd }
func (t *Template) Days() DaySet         { return t.days }
func (t *Template) StartDate() time.Time { return t.startDate }
func (t *Template) EndDate() time.Time   { return t.endDate }
func (t *Template) Status() Status       { return t.status }
func (t *Template) CreatedAt() time.Time { return t.createdAt }
func (t *Template) UpdatedAt() time.Time { return t.updatedAt }

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
