package commands

import (
	"bytes"
	"encoding/json"
	"time"

	"bike-reserve/internal/pkg/errs"

	"github.com/google/uuid"
)

// Outbox job types owned by the reservation engine. Every type registered
// with the dispatcher has its payload schema defined here; enqueue-time
// validation rejects anything else as a programming error.
const (
	JobTypeReservationExpire = "reservation.expire"
	JobTypeExpirySweep       = "reservation.sweep"
	JobTypeNearExpiryNotify  = "reservation.notify_near_expiry"
	JobTypeFixedSlotAssign   = "fixedslot.assign"
	JobTypeWalletRelease     = "wallet.release"
	JobTypeWalletDebit       = "wallet.debit"
)

var ErrUnknownJobType = errs.New("unknown job type")

// KnownJobType reports whether the engine owns the given outbox job type.
func KnownJobType(jobType string) bool {
	switch jobType {
	case JobTypeReservationExpire, JobTypeExpirySweep, JobTypeNearExpiryNotify,
		JobTypeFixedSlotAssign, JobTypeWalletRelease, JobTypeWalletDebit:
		return true
	default:
		return false
	}
}

type ExpireReservationPayload struct {
	ReservationID uuid.UUID `json:"reservation_id"`
}

// TriggerPayload is shared by the three self-perpetuating standing jobs.
// ScheduledFor doubles as the dedupe-key discriminator between runs.
type TriggerPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

type FixedSlotAssignPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
	SlotDate     string    `json:"slot_date"` // YYYY-MM-DD
}

type WalletReleasePayload struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	HoldRef       string    `json:"hold_ref"`
}

type WalletDebitPayload struct {
	UserID      uuid.UUID `json:"user_id"`
	AmountCents int64     `json:"amount_cents"`
	Reference   string    `json:"reference"`
}

// ValidateJobPayload is wired into the outbox store so malformed payloads
// never reach the queue.
func ValidateJobPayload(jobType string, payload []byte) error {
	switch jobType {
	case JobTypeReservationExpire:
		var p ExpireReservationPayload
		if err := strictUnmarshal(payload, &p); err != nil {
			return err
		}
		if p.ReservationID == uuid.Nil {
			return errs.New("reservation_id is required")
		}
	case JobTypeExpirySweep, JobTypeNearExpiryNotify:
		var p TriggerPayload
		if err := strictUnmarshal(payload, &p); err != nil {
			return err
		}
	case JobTypeFixedSlotAssign:
		var p FixedSlotAssignPayload
		if err := strictUnmarshal(payload, &p); err != nil {
			return err
		}
		if _, err := time.Parse("2006-01-02", p.SlotDate); err != nil {
			return errs.Wrap(err, "slot_date must be YYYY-MM-DD")
		}
	case JobTypeWalletRelease:
		var p WalletReleasePayload
		if err := strictUnmarshal(payload, &p); err != nil {
			return err
		}
		if p.HoldRef == "" {
			return errs.New("hold_ref is required")
		}
	case JobTypeWalletDebit:
		var p WalletDebitPayload
		if err := strictUnmarshal(payload, &p); err != nil {
			return err
		}
		if p.UserID == uuid.Nil {
			return errs.New("user_id is required")
		}
		if p.AmountCents <= 0 {
			return errs.New("amount_cents must be positive")
		}
	default:
		return ErrUnknownJobType
	}
	return nil
}

func strictUnmarshal(payload []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errs.Wrap(err, "payload does not match schema")
	}
	return nil
}
