package readstore

import (
	"context"

	"bike-reserve/internal/infra"
	"bike-reserve/internal/infra/db"
	"bike-reserve/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReservationReadStore struct {
	pool *pgxpool.Pool
}

func NewReservationReadStore(pool *pgxpool.Pool) *ReservationReadStore {
	return &ReservationReadStore{pool: pool}
}

const reservationViewColumns = `
id, user_id, station_id, bike_id, reservation_option, fixed_slot_template_id,
subscription_id, start_time, end_time, prepaid_cents, status, cancel_reason,
notified_at, created_at, updated_at`

func (r *ReservationReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+reservationViewColumns+` FROM reservations WHERE id = $1`, id)
	view, err := scanReservationView(row)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation by ID", err)
	}
	return view, nil
}

func (r *ReservationReadStore) FindByUserID(ctx context.Context, userID uuid.UUID, limit int32) ([]*queries.ReservationView, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+reservationViewColumns+` FROM reservations
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list reservations by user", err)
	}
	defer rows.Close()

	var out []*queries.ReservationView
	for rows.Next() {
		view, err := scanReservationView(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation view", err)
		}
		out = append(out, view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read reservation views", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservationView(row rowScanner) (*queries.ReservationView, error) {
	var v queries.ReservationView
	if err := row.Scan(
		&v.ID, &v.UserID, &v.StationID, &v.BikeID, &v.Option, &v.TemplateID,
		&v.SubscriptionID, &v.StartTime, &v.EndTime, &v.PrepaidCents, &v.Status,
		&v.CancelReason, &v.NotifiedAt, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &v, nil
}
