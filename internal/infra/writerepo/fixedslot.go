package writerepo

import (
	"context"
	"time"

	"bike-reserve/internal/domain/fixedslot"
	"bike-reserve/internal/infra"
	"bike-reserve/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TemplateRepository struct {
	pool *pgxpool.Pool
}

func NewTemplateRepository(pool *pgxpool.Pool) *TemplateRepository {
	return &TemplateRepository{pool: pool}
}

const templateColumns = `
id, user_id, station_id, slot_start, slot_end, days_of_week,
start_date, end_date, status, created_at, updated_at`

func (r *TemplateRepository) Create(ctx context.Context, tx db.DBTX, tpl *fixedslot.Template) error {
	_, err := tx.Exec(ctx, `
INSERT INTO fixed_slot_templates(
	id, user_id, station_id, slot_start, slot_end, days_of_week,
	start_date, end_date, status, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		tpl.ID(), tpl.UserID(), tpl.StationID(),
		tpl.SlotStart().String(), tpl.SlotEnd().String(), daysToInt16(tpl.Days().Days()),
		tpl.StartDate(), tpl.EndDate(), tpl.Status().String(),
		tpl.CreatedAt(), tpl.UpdatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create fixed-slot template", err)
	}
	return nil
}

func (r *TemplateRepository) FindByID(ctx context.Context, id uuid.UUID) (*fixedslot.Template, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM fixed_slot_templates WHERE id = $1`, id)
	tpl, err := scanTemplate(row)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, infra.WrapRepoErr("fixed-slot template not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find fixed-slot template", err)
	}
	return tpl, nil
}

func (r *TemplateRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status fixedslot.Status, now time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE fixed_slot_templates SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status.String(), now,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update template status", err)
	}
	return nil
}

// ListActiveCovering filters by date range and weekday in SQL and orders by
// creation time, which fixes the assignment order.
func (r *TemplateRepository) ListActiveCovering(ctx context.Context, date time.Time) ([]*fixedslot.Template, error) {
	weekday := int16(date.Weekday())
	rows, err := r.pool.Query(ctx, `
SELECT `+templateColumns+` FROM fixed_slot_templates
WHERE status = 'active'
  AND start_date <= $1::date
  AND end_date >= $1::date
  AND $2 = ANY(days_of_week)
ORDER BY created_at, id`,
		date, weekday,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list active templates", err)
	}
	defer rows.Close()

	var out []*fixedslot.Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan template", err)
		}
		out = append(out, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read templates", err)
	}
	return out, nil
}

func scanTemplate(row rowScanner) (*fixedslot.Template, error) {
	var (
		id, userID, stationID uuid.UUID
		slotStart, slotEnd    string
		days                  []int16
		startDate, endDate    time.Time
		status                string
		createdAt, updatedAt  time.Time
	)
	if err := row.Scan(
		&id, &userID, &stationID, &slotStart, &slotEnd, &days,
		&startDate, &endDate, &status, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	start, err := fixedslot.ParseTimeOfDay(slotStart)
	if err != nil {
		return nil, err
	}
	end, err := fixedslot.ParseTimeOfDay(slotEnd)
	if err != nil {
		return nil, err
	}
	daySet, err := fixedslot.NewDaySet(daysToInt(days))
	if err != nil {
		return nil, err
	}

	return fixedslot.ReconstructTemplate(
		id, userID, stationID, start, end, daySet,
		startDate, endDate, fixedslot.Status(status),
		createdAt, updatedAt,
	), nil
}

func daysToInt16(days []int) []int16 {
	out := make([]int16, len(days))
	for i, d := range days {
		out[i] = int16(d)
	}
	return out
}

func daysToInt(days []int16) []int {
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = int(d)
	}
	return out
}
