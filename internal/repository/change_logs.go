package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/s2c2-dev/staffing/backend/internal/changelog"
	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

const logLimit = 200

// writeLog inserts e inside tx and appends the stored row to out.Logs.
func writeLog(ctx context.Context, tx *sql.Tx, out *Outcome, e domain.LogEntry) error {
	query := `
		INSERT INTO change_logs (creator_id, type, ref, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, updated
	`

	if err := tx.QueryRowContext(ctx, query, e.CreatorID, e.Type, e.Ref, e.Message).Scan(&e.ID, &e.Updated); err != nil {
		return err
	}
	out.Logs = append(out.Logs, e)

	return nil
}

// GetStaffDayLogs lists the entries about one staff member's day, newest
// first: offer and template changes by day ref, meet changes by meet ref.
func (r *Repository) GetStaffDayLogs(ctx context.Context, staffID int64, day slot.DayToken) ([]domain.LogEntry, error) {
	query := `
		SELECT id, creator_id, type, ref, message, updated
		FROM change_logs
		WHERE (type IN ($1, $2) AND ref = $3)
			OR (type IN ($4, $5, $6) AND ref LIKE $7)
		ORDER BY updated DESC, id DESC
		LIMIT $8
	`

	args := []any{
		domain.LogOfferUpdate, domain.LogTemplateOpStaff, changelog.DayRef(staffID, day),
		domain.LogMeetUpdate, domain.LogMeetCascadeDeleteOffer, domain.LogMeetCascadeDeleteNeed,
		fmt.Sprintf("%d,%%,%s,%%", staffID, day.Token()),
		logLimit,
	}

	return r.queryLogs(ctx, query, args...)
}

// GetLocationDayLogs is GetStaffDayLogs for a location.
func (r *Repository) GetLocationDayLogs(ctx context.Context, locationID int64, day slot.DayToken) ([]domain.LogEntry, error) {
	query := `
		SELECT id, creator_id, type, ref, message, updated
		FROM change_logs
		WHERE (type IN ($1, $2) AND ref = $3)
			OR (type IN ($4, $5, $6) AND ref LIKE $7)
		ORDER BY updated DESC, id DESC
		LIMIT $8
	`

	args := []any{
		domain.LogNeedUpdate, domain.LogTemplateOpClassroom, changelog.DayRef(locationID, day),
		domain.LogMeetUpdate, domain.LogMeetCascadeDeleteOffer, domain.LogMeetCascadeDeleteNeed,
		fmt.Sprintf("%%,%d,%s,%%", locationID, day.Token()),
		logLimit,
	}

	return r.queryLogs(ctx, query, args...)
}

func (r *Repository) queryLogs(ctx context.Context, query string, args ...any) ([]domain.LogEntry, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.LogEntry, 0)
	for rows.Next() {
		var e domain.LogEntry
		if err := rows.Scan(&e.ID, &e.CreatorID, &e.Type, &e.Ref, &e.Message, &e.Updated); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// GetNames loads the display names of every user and location.
func (r *Repository) GetNames(ctx context.Context) (changelog.MapNames, error) {
	names := changelog.MapNames{
		Staff:     make(map[int64]string),
		Locations: make(map[int64]string),
	}

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, `SELECT id, COALESCE(NULLIF(full_name, ''), username) FROM users`)
	if err != nil {
		return names, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return names, err
		}
		names.Staff[id] = name
	}
	if err := rows.Err(); err != nil {
		return names, err
	}

	rows, err = r.dbpool.QueryContext(ctx, `SELECT id, name FROM locations`)
	if err != nil {
		return names, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return names, err
		}
		names.Locations[id] = name
	}

	return names, rows.Err()
}
