package collab

import (
	"context"

	"bike-reserve/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGBikeCatalog reads bike availability from the catalog tables the station
// CRUD service owns. The engine only lists availability and flips status;
// all other catalog writes stay with that service.
type PGBikeCatalog struct {
	pool *pgxpool.Pool
}

func NewPGBikeCatalog(pool *pgxpool.Pool) *PGBikeCatalog {
	return &PGBikeCatalog{pool: pool}
}

func (c *PGBikeCatalog) ListAvailableBikes(ctx context.Context, stationID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := c.pool.Query(ctx, `
SELECT id FROM bikes
WHERE station_id = $1 AND status = 'available'
ORDER BY created_at, id`,
		stationID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list available bikes", err)
	}
	defer rows.Close()

	var bikes []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan bike id", err)
		}
		bikes = append(bikes, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read bike ids", err)
	}
	return bikes, nil
}

func (c *PGBikeCatalog) MarkBikeStatus(ctx context.Context, bikeID uuid.UUID, status string) error {
	_, err := c.pool.Exec(ctx,
		`UPDATE bikes SET status = $2, updated_at = now() WHERE id = $1`,
		bikeID, status,
	)
	if err != nil {
		return infra.WrapRepoErr("failed to mark bike status", err)
	}
	return nil
}
