package writerepo

import (
	"context"
	"time"

	"bike-reserve/internal/domain/reservation"
	"bike-reserve/internal/infra"
	"bike-reserve/internal/infra/db"
	"bike-reserve/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

const reservationColumns = `
id, user_id, station_id, bike_id, reservation_option, fixed_slot_template_id,
subscription_id, start_time, end_time, prepaid_cents, hold_ref, status,
cancel_reason, notified_at, slot_key, created_at, updated_at`

func (r *ReservationRepository) Create(ctx context.Context, tx db.DBTX, res *reservation.Reservation) error {
	_, err := tx.Exec(ctx, `
INSERT INTO reservations(
	id, user_id, station_id, bike_id, reservation_option, fixed_slot_template_id,
	subscription_id, start_time, end_time, prepaid_cents, hold_ref, status,
	slot_key, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		res.ID(), res.UserID(), res.StationID(), res.BikeID(),
		res.ReservationOption().String(), res.TemplateID(), res.SubscriptionID(),
		res.StartTime(), res.EndTime(), res.Prepaid().Cents(), res.HoldRef(),
		res.Status().String(), res.SlotKey(), res.CreatedAt(), res.UpdatedAt(),
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return infra.WrapRepoErr("reservation already exists for this slot", err, infra.KindDuplicateKey)
		}
		return infra.WrapRepoErr("failed to create reservation", err)
	}
	return nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
	res, err := scanReservation(row)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation", err)
	}
	return res, nil
}

// ConfirmIfPending flips status with a single-row conditional update so the
// first writer wins and every later writer observes zero rows.
func (r *ReservationRepository) ConfirmIfPending(ctx context.Context, tx db.DBTX, id uuid.UUID, now time.Time) (*commands.TransitionResult, error) {
	return r.transitionIfPending(ctx, tx, `
UPDATE reservations SET status = 'confirmed', updated_at = $2
WHERE id = $1 AND status = 'pending'
RETURNING hold_ref, bike_id`, id, now)
}

func (r *ReservationRepository) CancelIfPending(ctx context.Context, tx db.DBTX, id uuid.UUID, reason string, now time.Time) (*commands.TransitionResult, error) {
	var result commands.TransitionResult
	err := tx.QueryRow(ctx, `
UPDATE reservations SET status = 'cancelled', cancel_reason = $3, updated_at = $2
WHERE id = $1 AND status = 'pending'
RETURNING hold_ref, bike_id`,
		id, now, reason,
	).Scan(&result.HoldRef, &result.BikeID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to cancel reservation", err)
	}
	return &result, nil
}

func (r *ReservationRepository) ExpireIfPending(ctx context.Context, tx db.DBTX, id uuid.UUID, now time.Time) (*commands.TransitionResult, error) {
	return r.transitionIfPending(ctx, tx, `
UPDATE reservations SET status = 'expired', updated_at = $2
WHERE id = $1 AND status = 'pending' AND end_time IS NOT NULL AND end_time <= $2
RETURNING hold_ref, bike_id`, id, now)
}

func (r *ReservationRepository) transitionIfPending(ctx context.Context, tx db.DBTX, sql string, id uuid.UUID, now time.Time) (*commands.TransitionResult, error) {
	var result commands.TransitionResult
	err := tx.QueryRow(ctx, sql, id, now).Scan(&result.HoldRef, &result.BikeID)
	if err != nil {
		if db.IsNoRows(err) {
			// Lost the race; the caller reports a no-op.
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to apply reservation transition", err)
	}
	return &result, nil
}

func (r *ReservationRepository) MarkNotified(ctx context.Context, id uuid.UUID, now time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE reservations SET notified_at = $2, updated_at = $2 WHERE id = $1`,
		id, now,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to mark reservation notified", err)
	}
	return nil
}

func (r *ReservationRepository) ListPendingEndingWithin(ctx context.Context, from, until time.Time, limit int32) ([]*reservation.Reservation, error) {
	return r.listPending(ctx, `
SELECT `+reservationColumns+` FROM reservations
WHERE status = 'pending'
  AND notified_at IS NULL
  AND end_time IS NOT NULL AND end_time > $1 AND end_time <= $2
ORDER BY end_time
LIMIT $3`, from, until, limit)
}

func (r *ReservationRepository) ListPendingEndedBefore(ctx context.Context, cutoff time.Time, limit int32) ([]*reservation.Reservation, error) {
	return r.listPending(ctx, `
SELECT `+reservationColumns+` FROM reservations
WHERE status = 'pending'
  AND end_time IS NOT NULL AND end_time <= $1
ORDER BY end_time
LIMIT $2`, cutoff, limit)
}

func (r *ReservationRepository) listPending(ctx context.Context, sql string, args ...any) ([]*reservation.Reservation, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list pending reservations", err)
	}
	defer rows.Close()

	var out []*reservation.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read reservations", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*reservation.Reservation, error) {
	var (
		id, userID, stationID          uuid.UUID
		bikeID, templateID, subID      *uuid.UUID
		option, status                 string
		startTime, createdAt, updated  time.Time
		endTime, notifiedAt            *time.Time
		prepaidCents                   int64
		holdRef, cancelReason, slotKey *string
	)
	if err := row.Scan(
		&id, &userID, &stationID, &bikeID, &option, &templateID,
		&subID, &startTime, &endTime, &prepaidCents, &holdRef, &status,
		&cancelReason, &notifiedAt, &slotKey, &createdAt, &updated,
	); err != nil {
		return nil, err
	}

	return reservation.ReconstructReservation(
		id, userID, stationID, bikeID,
		reservation.Option(option), templateID, subID,
		startTime, endTime,
		reservation.MoneyFromCents(prepaidCents), holdRef,
		reservation.Status(status), cancelReason, notifiedAt, slotKey,
		createdAt, updated,
	), nil
}
