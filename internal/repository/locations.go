package repository

import (
	"context"

	"github.com/s2c2-dev/staffing/backend/internal/domain"
)

func (r *Repository) GetLocationByID(ctx context.Context, id int64) (*domain.Location, error) {
	query := `
		SELECT center_id, name, created_at FROM locations WHERE id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	loc := &domain.Location{
		ID: id,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&loc.CenterID, &loc.Name, &loc.CreatedAt); err != nil {
		return nil, err
	}

	return loc, nil
}

func (r *Repository) GetAllLocations(ctx context.Context) ([]*domain.Location, error) {
	query := `
		SELECT id, center_id, name, created_at FROM locations ORDER BY id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := make([]*domain.Location, 0)
	for rows.Next() {
		loc := &domain.Location{}
		if err := rows.Scan(&loc.ID, &loc.CenterID, &loc.Name, &loc.CreatedAt); err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return locations, nil
}

// CreateLocation inserts loc. A duplicate name within a center violates
// locations_center_id_name_key.
func (r *Repository) CreateLocation(ctx context.Context, loc *domain.Location) error {
	query := `
		INSERT INTO locations (center_id, name)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return r.dbpool.QueryRowContext(ctx, query, loc.CenterID, loc.Name).Scan(&loc.ID, &loc.CreatedAt)
}
