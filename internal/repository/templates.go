package repository

import (
	"context"
	"database/sql"
	"errors"
	"slices"

	"github.com/s2c2-dev/staffing/backend/internal/changelog"
	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/planner"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

// CopyOfferTemplate fills a dated day with the staff member's weekly offers
// for its weekday. Offers already present are kept, so copying twice adds
// nothing the second time.
func (r *Repository) CopyOfferTemplate(ctx context.Context, actor domain.Actor, staffID int64, day slot.DayToken) (*Outcome, error) {
	if day.IsRegular() {
		return nil, ErrNotDated
	}

	out := newOutcome()
	err := r.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		template, err := txSlots(ctx, tx, `SELECT id, staff_id, day, start_time, created_at FROM offer_slots WHERE staff_id = $1 AND day = $2`, staffID, day.Template(), domain.OwnerStaff)
		if err != nil {
			return err
		}
		existing, err := txSlots(ctx, tx, `SELECT id, staff_id, day, start_time, created_at FROM offer_slots WHERE staff_id = $1 AND day = $2`, staffID, day, domain.OwnerStaff)
		if err != nil {
			return err
		}

		missing, err := planner.MissingOffers(template, existing, day)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO offer_slots (staff_id, day, start_time)
			VALUES ($1, $2, $3)
			ON CONFLICT ON CONSTRAINT offer_slots_staff_id_day_start_time_key DO NOTHING
			RETURNING id
		`
		for _, s := range missing {
			var id int64
			if err := tx.QueryRowContext(ctx, query, staffID, day, s.Start).Scan(&id); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					continue
				}
				return err
			}
			out.Tokens = append(out.Tokens, s.Start)
		}

		if len(out.Tokens) == 0 {
			return nil
		}

		return writeLog(ctx, tx, out, changelog.NewDayEntry(domain.LogTemplateOpStaff, actor.UserID, staffID, day, "copied from template"))
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// CopyNeedTemplate fills a dated day with the location's weekly needs and
// then replays the weekly assignments of that location onto free dated rows.
func (r *Repository) CopyNeedTemplate(ctx context.Context, actor domain.Actor, locationID int64, day slot.DayToken) (*Outcome, error) {
	if day.IsRegular() {
		return nil, ErrNotDated
	}

	out := newOutcome()
	err := r.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		template, err := txSlots(ctx, tx, `SELECT id, location_id, day, start_time, created_at FROM need_slots WHERE location_id = $1 AND day = $2`, locationID, day.Template(), domain.OwnerLocation)
		if err != nil {
			return err
		}
		existing, err := txSlots(ctx, tx, `SELECT id, location_id, day, start_time, created_at FROM need_slots WHERE location_id = $1 AND day = $2`, locationID, day, domain.OwnerLocation)
		if err != nil {
			return err
		}

		missing, err := planner.MissingNeeds(template, existing, day)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO need_slots (location_id, day, start_time)
			VALUES ($1, $2, $3)
		`
		for _, s := range missing {
			if _, err := tx.ExecContext(ctx, query, locationID, day, s.Start); err != nil {
				return err
			}
			out.Tokens = append(out.Tokens, s.Start)
		}

		if err := r.replayMeets(ctx, tx, actor, locationID, day, out); err != nil {
			return err
		}

		if len(out.Tokens) == 0 && len(out.Meets) == 0 {
			return nil
		}

		return writeLog(ctx, tx, out, changelog.NewDayEntry(domain.LogTemplateOpClassroom, actor.UserID, locationID, day, "copied from template"))
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *Repository) replayMeets(ctx context.Context, tx *sql.Tx, actor domain.Actor, locationID int64, day slot.DayToken, out *Outcome) error {
	query := `
		SELECT ` + meetColumns + `
		FROM meets m
		JOIN need_slots n ON n.id = m.need_id
		JOIN offer_slots o ON o.id = m.offer_id
		WHERE n.location_id = $1 AND n.day = $2 AND m.status = 1
		ORDER BY n.start_time, m.id
	`
	rows, err := tx.QueryContext(ctx, query, locationID, day.Template())
	if err != nil {
		return err
	}
	regular, err := collectMeets(rows)
	if err != nil {
		return err
	}
	if len(regular) == 0 {
		return nil
	}

	rows, err = tx.QueryContext(ctx, matchedNeedsQuery+`
		WHERE n.location_id = $1 AND n.day = $2
		ORDER BY n.start_time, n.id
	`, locationID, day)
	if err != nil {
		return err
	}
	needs, err := collectMatched(rows, domain.OwnerLocation)
	if err != nil {
		return err
	}

	staff := make([]int64, 0)
	for _, m := range regular {
		if !slices.Contains(staff, m.StaffID) {
			staff = append(staff, m.StaffID)
		}
	}

	offers := make([]domain.MatchedSlot, 0)
	for _, staffID := range staff {
		rows, err := tx.QueryContext(ctx, matchedOffersQuery+`
			WHERE o.staff_id = $1 AND o.day = $2
			ORDER BY o.start_time, o.id
		`, staffID, day)
		if err != nil {
			return err
		}
		staffOffers, err := collectMatched(rows, domain.OwnerStaff)
		if err != nil {
			return err
		}
		offers = append(offers, staffOffers...)
	}

	insert := `
		INSERT INTO meets (offer_id, need_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
		RETURNING id
	`
	for _, p := range planner.ReplayMeets(regular, offers, needs) {
		m := domain.Meet{
			OfferID:    p.OfferID,
			NeedID:     p.NeedID,
			StaffID:    p.StaffID,
			LocationID: p.LocationID,
			Day:        day,
			Start:      p.Start,
			Status:     domain.MeetActive,
		}
		if err := tx.QueryRowContext(ctx, insert, p.OfferID, p.NeedID, domain.MeetActive).Scan(&m.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return err
		}

		out.Meets = append(out.Meets, m)
		if err := writeLog(ctx, tx, out, changelog.NewMeetEntry(domain.LogMeetUpdate, actor.UserID, m, "assigned from template")); err != nil {
			return err
		}
	}

	return nil
}

func txSlots(ctx context.Context, tx *sql.Tx, query string, ownerID int64, day slot.DayToken, kind domain.OwnerKind) ([]domain.Slot, error) {
	rows, err := tx.QueryContext(ctx, query, ownerID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]domain.Slot, 0)
	for rows.Next() {
		s := domain.Slot{Owner: domain.Owner{Kind: kind}}
		if err := rows.Scan(&s.ID, &s.Owner.ID, &s.Day, &s.Start, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.End = slotEnd(s.Start)
		slots = append(slots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return slots, nil
}

// TemplateDays maps every staff member (offers) or location (needs) with
// weekly rows to the regular days it has rows on.
type TemplateDays map[int64][]slot.DayToken

func (r *Repository) GetOfferTemplateDays(ctx context.Context) (TemplateDays, error) {
	return r.templateDays(ctx, `SELECT DISTINCT staff_id, day FROM offer_slots WHERE day LIKE 'w%' ORDER BY 1, 2`)
}

func (r *Repository) GetNeedTemplateDays(ctx context.Context) (TemplateDays, error) {
	return r.templateDays(ctx, `SELECT DISTINCT location_id, day FROM need_slots WHERE day LIKE 'w%' ORDER BY 1, 2`)
}

func (r *Repository) templateDays(ctx context.Context, query string) (TemplateDays, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make(TemplateDays)
	for rows.Next() {
		var id int64
		var day slot.DayToken
		if err := rows.Scan(&id, &day); err != nil {
			return nil, err
		}
		days[id] = append(days[id], day)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return days, nil
}
