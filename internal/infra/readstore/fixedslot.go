package readstore

import (
	"context"

	"bike-reserve/internal/infra"
	"bike-reserve/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TemplateReadStore struct {
	pool *pgxpool.Pool
}

func NewTemplateReadStore(pool *pgxpool.Pool) *TemplateReadStore {
	return &TemplateReadStore{pool: pool}
}

func (r *TemplateReadStore) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*queries.TemplateView, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, user_id, station_id, slot_start, slot_end, days_of_week,
       start_date, end_date, status, created_at, updated_at
FROM fixed_slot_templates
WHERE user_id = $1
ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list templates by user", err)
	}
	defer rows.Close()

	var out []*queries.TemplateView
	for rows.Next() {
		var v queries.TemplateView
		var days []int16
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.StationID, &v.SlotStart, &v.SlotEnd, &days,
			&v.StartDate, &v.EndDate, &v.Status, &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan template view", err)
		}
		v.Days = make([]int, len(days))
		for i, d := range days {
			v.Days[i] = int(d)
		}
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read template views", err)
	}
	return out, nil
}
