package slot

import (
	"iter"
	"strings"
)

// TimeSlot is the half-open range [Start, End) of a day.
type TimeSlot struct {
	Start TimeToken `json:"start"`
	End   TimeToken `json:"end"`
}

func NewTimeSlot(start, end TimeToken) (TimeSlot, error) {
	if start.Compare(end) >= 0 {
		return TimeSlot{}, &InvalidRangeError{Start: start, End: end}
	}
	return TimeSlot{Start: start, End: end}, nil
}

// Adjacent reports whether one slot ends exactly where the other starts.
func (s TimeSlot) Adjacent(o TimeSlot) bool {
	return s.End == o.Start || o.End == s.Start
}

// Tokens yields every token covered by the slot.
func (s TimeSlot) Tokens() iter.Seq[TimeToken] {
	seq, err := Interval(s.Start, s.End)
	if err != nil {
		return func(func(TimeToken) bool) {}
	}
	return seq
}

// Len is the number of slot widths covered.
func (s TimeSlot) Len() int {
	if s.End.Before(s.Start) {
		return 0
	}
	return (s.End.minutes - s.Start.minutes) / widthMinutes
}

func (s TimeSlot) Display() string {
	return s.Start.Display() + "-" + s.End.Display()
}

// Combine merges occupied tokens into maximal contiguous slots. DayEnd is
// only an end boundary, so it never starts a slot and is dropped.
func Combine(tokens []TimeToken) []TimeSlot {
	starts := make([]TimeToken, 0, len(tokens))
	for _, t := range tokens {
		if t.minutes < dayMinutes {
			starts = append(starts, t)
		}
	}

	ranges := Merge(starts, TimeToken.Compare, TimeToken.step)
	slots := make([]TimeSlot, 0, len(ranges))
	for _, r := range ranges {
		slots = append(slots, TimeSlot{Start: r.Start, End: r.End})
	}
	return slots
}

// DisplayCombined renders the merged slots, e.g. "9:00AM-11:30AM, 1:00PM-3:00PM".
func DisplayCombined(tokens []TimeToken) string {
	slots := Combine(tokens)
	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		parts = append(parts, s.Display())
	}
	return strings.Join(parts, ", ")
}

// Flatten expands slots back into their tokens.
func Flatten(slots []TimeSlot) []TimeToken {
	tokens := make([]TimeToken, 0)
	for _, s := range slots {
		for t := range s.Tokens() {
			tokens = append(tokens, t)
		}
	}
	return tokens
}
