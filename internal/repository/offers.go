package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/s2c2-dev/staffing/backend/internal/changelog"
	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

// GetOffers lists the offers of one staff member on day with their active
// meets, ordered by start.
func (r *Repository) GetOffers(ctx context.Context, staffID int64, day slot.DayToken) ([]domain.MatchedSlot, error) {
	query := matchedOffersQuery + `
		WHERE o.staff_id = $1 AND o.day = $2
		ORDER BY o.start_time, o.id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, staffID, day)
	if err != nil {
		return nil, err
	}

	return collectMatched(rows, domain.OwnerStaff)
}

// AddOffers adds one offer per token of [start, end) that the staff member
// does not offer yet. Outcome.Tokens lists the tokens actually added.
func (r *Repository) AddOffers(ctx context.Context, actor domain.Actor, staffID int64, day slot.DayToken, start, end slot.TimeToken) (*Outcome, error) {
	tokens, err := slot.Interval(start, end)
	if err != nil {
		return nil, err
	}

	out := newOutcome()
	err = r.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		query := `
			INSERT INTO offer_slots (staff_id, day, start_time)
			VALUES ($1, $2, $3)
			ON CONFLICT ON CONSTRAINT offer_slots_staff_id_day_start_time_key DO NOTHING
			RETURNING id
		`

		for t := range tokens {
			var id int64
			if err := tx.QueryRowContext(ctx, query, staffID, day, t).Scan(&id); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					continue
				}
				return err
			}
			out.Tokens = append(out.Tokens, t)
		}

		if len(out.Tokens) == 0 {
			return nil
		}

		msg := fmt.Sprintf("added slot(s): %s", out.Summary())
		return writeLog(ctx, tx, out, changelog.NewDayEntry(domain.LogOfferUpdate, actor.UserID, staffID, day, msg))
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// DeleteOffers removes the staff member's offers in [start, end). Their
// active meets go with them and each is logged as a cascade.
func (r *Repository) DeleteOffers(ctx context.Context, actor domain.Actor, staffID int64, day slot.DayToken, start, end slot.TimeToken) (*Outcome, error) {
	if _, err := slot.Interval(start, end); err != nil {
		return nil, err
	}

	return r.deleteOffers(ctx, actor, staffID, day, start, end, "removed slot(s)")
}

// DeleteAllOffers clears the staff member's whole day.
func (r *Repository) DeleteAllOffers(ctx context.Context, actor domain.Actor, staffID int64, day slot.DayToken) (*Outcome, error) {
	return r.deleteOffers(ctx, actor, staffID, day, slot.DayStart, slot.DayEnd, "removed all slot(s)")
}

func (r *Repository) deleteOffers(ctx context.Context, actor domain.Actor, staffID int64, day slot.DayToken, start, end slot.TimeToken, verb string) (*Outcome, error) {
	out := newOutcome()
	err := r.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		query := `
			SELECT ` + meetColumns + `
			FROM meets m
			JOIN offer_slots o ON o.id = m.offer_id
			JOIN need_slots n ON n.id = m.need_id
			WHERE o.staff_id = $1 AND o.day = $2 AND o.start_time >= $3 AND o.start_time < $4 AND m.status = 1
			ORDER BY n.start_time, m.id
		`
		rows, err := tx.QueryContext(ctx, query, staffID, day, start, end)
		if err != nil {
			return err
		}
		if out.Meets, err = collectMeets(rows); err != nil {
			return err
		}

		query = `
			DELETE FROM offer_slots
			WHERE staff_id = $1 AND day = $2 AND start_time >= $3 AND start_time < $4
			RETURNING start_time
		`
		rows, err = tx.QueryContext(ctx, query, staffID, day, start, end)
		if err != nil {
			return err
		}
		if out.Tokens, err = collectTokens(rows); err != nil {
			return err
		}

		if len(out.Tokens) == 0 {
			return nil
		}

		msg := fmt.Sprintf("%s: %s", verb, out.Summary())
		if err := writeLog(ctx, tx, out, changelog.NewDayEntry(domain.LogOfferUpdate, actor.UserID, staffID, day, msg)); err != nil {
			return err
		}

		for _, m := range out.Meets {
			if err := writeLog(ctx, tx, out, changelog.NewMeetEntry(domain.LogMeetCascadeDeleteOffer, actor.UserID, m, "unassigned")); err != nil {
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

func collectTokens(rows *sql.Rows) ([]slot.TimeToken, error) {
	defer rows.Close()

	tokens := make([]slot.TimeToken, 0)
	for rows.Next() {
		var t slot.TimeToken
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tokens, nil
}
