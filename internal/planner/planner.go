package planner

import (
	"errors"

	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

// ErrNotDated is returned when a template copy targets a regular day.
var ErrNotDated = errors.New("planner: day is not a dated day")

type key struct {
	ownerID int64
	start   slot.TimeToken
}

// MissingOffers returns the dated offers to insert so that day carries every
// row of the weekly template. A template row is skipped when a dated row of
// the same owner already starts at the same token, so repeated copies add
// nothing.
func MissingOffers(template, existing []domain.Slot, day slot.DayToken) ([]domain.Slot, error) {
	if day.IsRegular() {
		return nil, ErrNotDated
	}

	have := make(map[key]bool, len(existing))
	for _, s := range existing {
		if s.Day == day {
			have[key{s.Owner.ID, s.Start}] = true
		}
	}

	missing := make([]domain.Slot, 0)
	for _, s := range template {
		if s.Day != day.Template() {
			continue
		}
		k := key{s.Owner.ID, s.Start}
		if have[k] {
			continue
		}
		have[k] = true
		missing = append(missing, dated(s, day))
	}

	return missing, nil
}

// MissingNeeds works like MissingOffers but keeps the number of template
// needs at each start token. The whole group is copied only if the date has
// no need of that location at that token.
func MissingNeeds(template, existing []domain.Slot, day slot.DayToken) ([]domain.Slot, error) {
	if day.IsRegular() {
		return nil, ErrNotDated
	}

	have := make(map[key]bool, len(existing))
	for _, s := range existing {
		if s.Day == day {
			have[key{s.Owner.ID, s.Start}] = true
		}
	}

	missing := make([]domain.Slot, 0)
	for _, s := range template {
		if s.Day != day.Template() || have[key{s.Owner.ID, s.Start}] {
			continue
		}
		missing = append(missing, dated(s, day))
	}

	return missing, nil
}

func dated(s domain.Slot, day slot.DayToken) domain.Slot {
	return domain.Slot{
		Owner: s.Owner,
		Day:   day,
		Start: s.Start,
		End:   s.End,
	}
}

// Pair is one offer/need match to insert as an active meet.
type Pair struct {
	OfferID    int64
	NeedID     int64
	StaffID    int64
	LocationID int64
	Start      slot.TimeToken
}

// ReplayMeets reproduces the active regular meets on a dated day. For every
// regular meet of staff X at location L and token t it pairs the first free
// dated offer of X at t with the first free dated need of L at t. Meets that
// cannot be paired are skipped.
func ReplayMeets(regular []domain.Meet, offers, needs []domain.MatchedSlot) []Pair {
	// offer and need ids come from separate sequences and may collide
	usedOffers := make(map[int64]bool)
	usedNeeds := make(map[int64]bool)

	firstFree := func(rows []domain.MatchedSlot, used map[int64]bool, ownerID int64, start slot.TimeToken) (int64, bool) {
		for _, r := range rows {
			if r.Meet == nil && !used[r.ID] && r.Owner.ID == ownerID && r.Start == start {
				return r.ID, true
			}
		}
		return 0, false
	}

	pairs := make([]Pair, 0)
	for _, m := range regular {
		if m.Status != domain.MeetActive {
			continue
		}

		offerID, ok := firstFree(offers, usedOffers, m.StaffID, m.Start)
		if !ok {
			continue
		}
		needID, ok := firstFree(needs, usedNeeds, m.LocationID, m.Start)
		if !ok {
			continue
		}

		usedOffers[offerID] = true
		usedNeeds[needID] = true
		pairs = append(pairs, Pair{
			OfferID:    offerID,
			NeedID:     needID,
			StaffID:    m.StaffID,
			LocationID: m.LocationID,
			Start:      m.Start,
		})
	}

	return pairs
}
