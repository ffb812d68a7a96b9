package calendar

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

const (
	OpenTitle = "Open"
	openColor = "#9e9e9e"
)

// Event is one merged block of a staff member's day, either assigned to a
// location or still open.
type Event struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	URL        string    `json:"url,omitempty"`
	Color      string    `json:"color,omitempty"`
	LocationID int64     `json:"locationID,omitempty"`
}

// StaffEvents groups the dated offers of one staff member by day and then by
// assigned location, and merges each group into contiguous events. Regular
// rows are ignored. Times are placed in loc.
func StaffEvents(rows []domain.MatchedSlot, staffID int64, locationNames map[int64]string, loc *time.Location) []Event {
	type group struct {
		day        slot.DayToken
		locationID int64
	}

	tokens := make(map[group][]slot.TimeToken)
	for _, r := range rows {
		if r.Day.IsRegular() || r.Owner.ID != staffID {
			continue
		}
		g := group{day: r.Day}
		if r.Meet != nil && r.Meet.Status == domain.MeetActive {
			g.locationID = r.Meet.LocationID
		}
		tokens[g] = append(tokens[g], r.Start)
	}

	groups := make([]group, 0, len(tokens))
	for g := range tokens {
		groups = append(groups, g)
	}
	slices.SortFunc(groups, func(a, b group) int {
		if c := cmp.Compare(a.day.Token(), b.day.Token()); c != 0 {
			return c
		}
		return cmp.Compare(a.locationID, b.locationID)
	})

	events := make([]Event, 0)
	for _, g := range groups {
		date, _ := g.day.Date()
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)

		for _, s := range slot.Combine(tokens[g]) {
			e := Event{
				ID:    fmt.Sprintf("%d-%s-%s-%s", staffID, g.day.Token(), s.Start.Token(), s.End.Token()),
				Title: OpenTitle,
				Start: s.Start.On(date),
				End:   s.End.On(date),
				Color: openColor,
			}
			if g.locationID != 0 {
				e.Title = locationNames[g.locationID]
				if e.Title == "" {
					e.Title = fmt.Sprintf("#%d", g.locationID)
				}
				e.Color = ""
				e.LocationID = g.locationID
				e.URL = fmt.Sprintf("/locations/%d/day?day=%s", g.locationID, g.day.Token())
			}
			events = append(events, e)
		}
	}

	slices.SortStableFunc(events, func(a, b Event) int { return a.Start.Compare(b.Start) })
	return events
}
