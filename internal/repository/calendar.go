package repository

import (
	"context"

	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

// GetStaffCalendar lists the staff member's dated offers on days in
// [from, to) with their active meets. Dated tokens sort as dates and regular
// tokens sort after them, so the text range excludes the weekly rows.
func (r *Repository) GetStaffCalendar(ctx context.Context, staffID int64, from, to slot.DayToken) ([]domain.MatchedSlot, error) {
	query := matchedOffersQuery + `
		WHERE o.staff_id = $1 AND o.day >= $2 AND o.day < $3
		ORDER BY o.day, o.start_time, o.id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, staffID, from, to)
	if err != nil {
		return nil, err
	}

	return collectMatched(rows, domain.OwnerStaff)
}
