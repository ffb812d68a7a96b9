package calendar

import (
	"time"

	ical "github.com/arran4/golang-ical"
)

const productID = "-//s2c2//staffing//EN"

// ICS renders events as an iCalendar feed. stamp is written as DTSTAMP of
// every event so that identical inputs produce identical output.
func ICS(events []Event, name string, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetName(name)
		cal.SetXWRCalName(name)
	}

	for _, e := range events {
		ev := cal.AddEvent(e.ID)
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(e.Start)
		ev.SetEndAt(e.End)
		ev.SetSummary(e.Title)
		if e.URL != "" {
			ev.SetURL(e.URL)
		}
	}

	return cal.Serialize()
}
