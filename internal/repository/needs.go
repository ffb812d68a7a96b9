package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/s2c2-dev/staffing/backend/internal/changelog"
	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

// GetNeeds lists the needs of one location on day with their active meets,
// ordered by start.
func (r *Repository) GetNeeds(ctx context.Context, locationID int64, day slot.DayToken) ([]domain.MatchedSlot, error) {
	query := matchedNeedsQuery + `
		WHERE n.location_id = $1 AND n.day = $2
		ORDER BY n.start_time, n.id
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, locationID, day)
	if err != nil {
		return nil, err
	}

	return collectMatched(rows, domain.OwnerLocation)
}

// GetNeed returns one need with its active meet.
func (r *Repository) GetNeed(ctx context.Context, id int64) (domain.MatchedSlot, error) {
	query := matchedNeedsQuery + `
		WHERE n.id = $1
	`

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return scanMatched(r.dbpool.QueryRowContext(ctx, query, id), domain.OwnerLocation)
}

// AddNeeds inserts howMany needs for every token of [start, end).
func (r *Repository) AddNeeds(ctx context.Context, actor domain.Actor, locationID int64, day slot.DayToken, start, end slot.TimeToken, howMany int) (*Outcome, error) {
	tokens, err := slot.Interval(start, end)
	if err != nil {
		return nil, err
	}

	out := newOutcome()
	err = r.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		query := `
			INSERT INTO need_slots (location_id, day, start_time)
			VALUES ($1, $2, $3)
		`

		for t := range tokens {
			for i := 0; i < howMany; i++ {
				if _, err := tx.ExecContext(ctx, query, locationID, day, t); err != nil {
					return err
				}
			}
			out.Tokens = append(out.Tokens, t)
		}

		msg := fmt.Sprintf("added %d need(s): %s", howMany, out.Summary())
		return writeLog(ctx, tx, out, changelog.NewDayEntry(domain.LogNeedUpdate, actor.UserID, locationID, day, msg))
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// DeleteNeeds removes the location's needs in [start, end). Without cascade
// only unmet needs go. With cascade met needs go too, and every meet removed
// with them is logged as a cascade.
func (r *Repository) DeleteNeeds(ctx context.Context, actor domain.Actor, locationID int64, day slot.DayToken, start, end slot.TimeToken, cascade bool) (*Outcome, error) {
	if _, err := slot.Interval(start, end); err != nil {
		return nil, err
	}

	out := newOutcome()
	err := r.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		query := `
			DELETE FROM need_slots n
			WHERE n.location_id = $1 AND n.day = $2 AND n.start_time >= $3 AND n.start_time < $4
				AND NOT EXISTS (SELECT 1 FROM meets m WHERE m.need_id = n.id AND m.status = 1)
			RETURNING n.start_time
		`

		if cascade {
			meetsQuery := `
				SELECT ` + meetColumns + `
				FROM meets m
				JOIN need_slots n ON n.id = m.need_id
				JOIN offer_slots o ON o.id = m.offer_id
				WHERE n.location_id = $1 AND n.day = $2 AND n.start_time >= $3 AND n.start_time < $4 AND m.status = 1
				ORDER BY n.start_time, m.id
			`
			rows, err := tx.QueryContext(ctx, meetsQuery, locationID, day, start, end)
			if err != nil {
				return err
			}
			if out.Meets, err = collectMeets(rows); err != nil {
				return err
			}

			query = `
				DELETE FROM need_slots n
				WHERE n.location_id = $1 AND n.day = $2 AND n.start_time >= $3 AND n.start_time < $4
				RETURNING n.start_time
			`
		}

		rows, err := tx.QueryContext(ctx, query, locationID, day, start, end)
		if err != nil {
			return err
		}
		if out.Tokens, err = collectTokens(rows); err != nil {
			return err
		}

		if len(out.Tokens) == 0 {
			return nil
		}

		msg := fmt.Sprintf("removed %d need(s): %s", len(out.Tokens), slot.DisplayCombined(out.Tokens))
		if err := writeLog(ctx, tx, out, changelog.NewDayEntry(domain.LogNeedUpdate, actor.UserID, locationID, day, msg)); err != nil {
			return err
		}

		for _, m := range out.Meets {
			if err := writeLog(ctx, tx, out, changelog.NewMeetEntry(domain.LogMeetCascadeDeleteNeed, actor.UserID, m, "unassigned")); err != nil {
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
