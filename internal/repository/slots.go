package repository

import (
	"database/sql"

	"github.com/s2c2-dev/staffing/backend/internal/domain"
)

// Column order shared by the matched offer and need queries: the slot row,
// then the active meet (if any) joined to the other side.

const matchedOffersQuery = `
	SELECT o.id, o.staff_id, o.day, o.start_time, o.created_at,
		m.id, m.need_id, n.location_id, m.status
	FROM offer_slots o
	LEFT JOIN meets m ON m.offer_id = o.id AND m.status = 1
	LEFT JOIN need_slots n ON n.id = m.need_id
`

const matchedNeedsQuery = `
	SELECT n.id, n.location_id, n.day, n.start_time, n.created_at,
		m.id, m.offer_id, o.staff_id, m.status
	FROM need_slots n
	LEFT JOIN meets m ON m.need_id = n.id AND m.status = 1
	LEFT JOIN offer_slots o ON o.id = m.offer_id
`

type scanner interface {
	Scan(dest ...any) error
}

func scanMatched(s scanner, kind domain.OwnerKind) (domain.MatchedSlot, error) {
	var (
		row      domain.MatchedSlot
		meetID   sql.NullInt64
		otherID  sql.NullInt64
		otherOwn sql.NullInt64
		status   sql.NullInt16
	)

	dst := []any{&row.ID, &row.Owner.ID, &row.Day, &row.Start, &row.CreatedAt, &meetID, &otherID, &otherOwn, &status}
	if err := s.Scan(dst...); err != nil {
		return row, err
	}

	row.Owner.Kind = kind
	row.End = slotEnd(row.Start)

	if !meetID.Valid {
		return row, nil
	}

	meet := &domain.Meet{
		ID:     meetID.Int64,
		Day:    row.Day,
		Start:  row.Start,
		Status: domain.MeetStatus(status.Int16),
	}
	if kind == domain.OwnerStaff {
		meet.OfferID, meet.NeedID = row.ID, otherID.Int64
		meet.StaffID, meet.LocationID = row.Owner.ID, otherOwn.Int64
	} else {
		meet.OfferID, meet.NeedID = otherID.Int64, row.ID
		meet.StaffID, meet.LocationID = otherOwn.Int64, row.Owner.ID
	}
	row.Meet = meet

	return row, nil
}

func collectMatched(rows *sql.Rows, kind domain.OwnerKind) ([]domain.MatchedSlot, error) {
	defer rows.Close()

	out := make([]domain.MatchedSlot, 0)
	for rows.Next() {
		row, err := scanMatched(rows, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// scanMeet reads the columns produced by meetColumns.
func scanMeet(s scanner) (domain.Meet, error) {
	var m domain.Meet
	err := s.Scan(&m.ID, &m.OfferID, &m.NeedID, &m.StaffID, &m.LocationID, &m.Day, &m.Start, &m.Status)
	return m, err
}

const meetColumns = `m.id, m.offer_id, m.need_id, o.staff_id, n.location_id, n.day, n.start_time, m.status`

func collectMeets(rows *sql.Rows) ([]domain.Meet, error) {
	defer rows.Close()

	out := make([]domain.Meet, 0)
	for rows.Next() {
		m, err := scanMeet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
