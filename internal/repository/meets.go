package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/s2c2-dev/staffing/backend/internal/changelog"
	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

// Candidate is a free offer that can fill a need.
type Candidate struct {
	OfferID   int64  `json:"offerID"`
	StaffID   int64  `json:"staffID"`
	StaffName string `json:"staffName"`
}

// Uniqueness of active meets per offer and per need is left to the partial
// unique indexes meets_active_offer_key and meets_active_need_key, so a lost
// race shows up as an insert that returns no row.

// Assign pairs one need with one offer. Both must be free and sit at the
// same day and start.
func (r *Repository) Assign(ctx context.Context, actor domain.Actor, needID, offerID int64) (*Outcome, error) {
	out := newOutcome()
	err := r.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var (
			m          domain.Meet
			offerDay   slot.DayToken
			offerStart slot.TimeToken
		)

		query := `SELECT location_id, day, start_time FROM need_slots WHERE id = $1`
		if err := tx.QueryRowContext(ctx, query, needID).Scan(&m.LocationID, &m.Day, &m.Start); err != nil {
			return err
		}

		query = `SELECT staff_id, day, start_time FROM offer_slots WHERE id = $1`
		if err := tx.QueryRowContext(ctx, query, offerID).Scan(&m.StaffID, &offerDay, &offerStart); err != nil {
			return err
		}

		if offerDay != m.Day || offerStart != m.Start {
			return ErrSlotMismatch
		}

		query = `
			INSERT INTO meets (offer_id, need_id, status)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
			RETURNING id
		`
		if err := tx.QueryRowContext(ctx, query, offerID, needID, domain.MeetActive).Scan(&m.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAlreadyAssigned
			}
			return err
		}

		m.OfferID, m.NeedID, m.Status = offerID, needID, domain.MeetActive
		out.Meets = append(out.Meets, m)
		out.Tokens = append(out.Tokens, m.Start)

		return writeLog(ctx, tx, out, changelog.NewMeetEntry(domain.LogMeetUpdate, actor.UserID, m, "assigned"))
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Unassign removes the active meet of a need, freeing both sides.
// sql.ErrNoRows means the need had none.
func (r *Repository) Unassign(ctx context.Context, actor domain.Actor, needID int64) (*Outcome, error) {
	out := newOutcome()
	err := r.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		query := `
			DELETE FROM meets m
			USING need_slots n, offer_slots o
			WHERE m.need_id = $1 AND m.status = 1 AND n.id = m.need_id AND o.id = m.offer_id
			RETURNING ` + meetColumns

		m, err := scanMeet(tx.QueryRowContext(ctx, query, needID))
		if err != nil {
			return err
		}

		out.Meets = append(out.Meets, m)
		out.Tokens = append(out.Tokens, m.Start)

		return writeLog(ctx, tx, out, changelog.NewMeetEntry(domain.LogMeetUpdate, actor.UserID, m, "unassigned"))
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// AssignRange pairs, for each token of [start, end), the first free offer of
// the staff member with the first free need of the location. Tokens without
// a free pair are skipped; Outcome.Tokens lists the ones assigned.
func (r *Repository) AssignRange(ctx context.Context, actor domain.Actor, staffID, locationID int64, day slot.DayToken, start, end slot.TimeToken) (*Outcome, error) {
	tokens, err := slot.Interval(start, end)
	if err != nil {
		return nil, err
	}

	out := newOutcome()
	err = r.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		query := `
			INSERT INTO meets (offer_id, need_id, status)
			SELECT o.id, n.id, 1
			FROM offer_slots o, need_slots n
			WHERE o.staff_id = $1 AND o.day = $3 AND o.start_time = $4
				AND n.location_id = $2 AND n.day = $3 AND n.start_time = $4
				AND NOT EXISTS (SELECT 1 FROM meets x WHERE x.offer_id = o.id AND x.status = 1)
				AND NOT EXISTS (SELECT 1 FROM meets x WHERE x.need_id = n.id AND x.status = 1)
			ORDER BY o.id, n.id
			LIMIT 1
			ON CONFLICT DO NOTHING
			RETURNING id, offer_id, need_id
		`

		for t := range tokens {
			m := domain.Meet{
				StaffID:    staffID,
				LocationID: locationID,
				Day:        day,
				Start:      t,
				Status:     domain.MeetActive,
			}
			if err := tx.QueryRowContext(ctx, query, staffID, locationID, day, t).Scan(&m.ID, &m.OfferID, &m.NeedID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					continue
				}
				return err
			}

			out.Meets = append(out.Meets, m)
			out.Tokens = append(out.Tokens, t)
			if err := writeLog(ctx, tx, out, changelog.NewMeetEntry(domain.LogMeetUpdate, actor.UserID, m, "assigned")); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// AvailableOffers lists the free offers of active staff at (day, t).
func (r *Repository) AvailableOffers(ctx context.Context, day slot.DayToken, t slot.TimeToken) ([]Candidate, error) {
	query := `
		SELECT o.id, o.staff_id, COALESCE(NULLIF(u.full_name, ''), u.username)
		FROM offer_slots o
		JOIN users u ON u.id = o.staff_id
		WHERE o.day = $1 AND o.start_time = $2 AND u.is_active
			AND NOT EXISTS (SELECT 1 FROM meets m WHERE m.offer_id = o.id AND m.status = 1)
		ORDER BY 3, o.id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, day, t)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]Candidate, 0)
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.OfferID, &c.StaffID, &c.StaffName); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return candidates, nil
}
