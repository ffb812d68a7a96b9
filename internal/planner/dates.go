package planner

import (
	"slices"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Dates returns the dated days in [from, to) that fall on one of weekdays,
// in order. Only the calendar date of from and to is used.
func Dates(weekdays []time.Weekday, from, to time.Time) ([]slot.DayToken, error) {
	days := make([]slot.DayToken, 0)
	if len(weekdays) == 0 {
		return days, nil
	}

	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	if !start.Before(end) {
		return days, nil
	}

	byDay := make([]rrule.Weekday, 0, len(weekdays))
	for _, w := range weekdays {
		if !slices.Contains(byDay, rruleWeekdays[w]) {
			byDay = append(byDay, rruleWeekdays[w])
		}
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   start,
		Byweekday: byDay,
	})
	if err != nil {
		return nil, err
	}

	for _, t := range r.Between(start, end, true) {
		if t.Equal(end) {
			continue
		}
		days = append(days, slot.DateOf(t))
	}

	return days, nil
}

// Weekdays lists the distinct weekdays of the regular tokens in days.
func Weekdays(days []slot.DayToken) []time.Weekday {
	out := make([]time.Weekday, 0)
	for _, d := range days {
		if d.IsRegular() && !slices.Contains(out, d.Weekday()) {
			out = append(out, d.Weekday())
		}
	}
	return out
}
