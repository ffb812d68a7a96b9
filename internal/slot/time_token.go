package slot

import (
	"cmp"
	"fmt"
	"iter"
	"strconv"
	"time"
)

// Width is the length of one time slot.
const Width = 30 * time.Minute

const (
	widthMinutes = int(Width / time.Minute)
	dayMinutes   = 24 * 60
)

// TimeToken identifies the start of a fixed-width slot within a day.
// 24:00 is valid only as an exclusive end boundary.
type TimeToken struct {
	minutes int
}

var (
	DayStart = TimeToken{minutes: 0}
	DayEnd   = TimeToken{minutes: dayMinutes}
)

func TimeTokenAt(hour, minute int) (TimeToken, error) {
	m := hour*60 + minute
	if hour < 0 || minute < 0 || minute >= 60 || m > dayMinutes {
		return TimeToken{}, &InvalidTokenError{Token: fmt.Sprintf("%02d%02d", hour, minute), Reason: "outside of the day"}
	}
	if m%widthMinutes != 0 {
		return TimeToken{}, &InvalidTokenError{Token: fmt.Sprintf("%02d%02d", hour, minute), Reason: "not on a slot boundary"}
	}
	return TimeToken{minutes: m}, nil
}

// MustTimeToken is like TimeTokenAt but panics on invalid input.
func MustTimeToken(hour, minute int) TimeToken {
	t, err := TimeTokenAt(hour, minute)
	if err != nil {
		panic(err)
	}
	return t
}

// NewTimeToken builds a token from the wall-clock part of t.
func NewTimeToken(t time.Time) (TimeToken, error) {
	if t.Second() != 0 || t.Nanosecond() != 0 {
		return TimeToken{}, &InvalidTokenError{Token: t.Format("15:04:05"), Reason: "not on a slot boundary"}
	}
	return TimeTokenAt(t.Hour(), t.Minute())
}

// ParseTimeToken parses the four digit HHMM form produced by Token.
func ParseTimeToken(s string) (TimeToken, error) {
	if len(s) != 4 {
		return TimeToken{}, &InvalidTokenError{Token: s, Reason: "expected HHMM"}
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return TimeToken{}, &InvalidTokenError{Token: s, Reason: "expected HHMM"}
		}
	}
	hour, _ := strconv.Atoi(s[:2])
	minute, _ := strconv.Atoi(s[2:])
	return TimeTokenAt(hour, minute)
}

func (t TimeToken) Token() string {
	return fmt.Sprintf("%02d%02d", t.minutes/60, t.minutes%60)
}

func (t TimeToken) String() string {
	return t.Token()
}

func (t TimeToken) Hour() int   { return t.minutes / 60 }
func (t TimeToken) Minute() int { return t.minutes % 60 }

func (t TimeToken) Compare(o TimeToken) int {
	return cmp.Compare(t.minutes, o.minutes)
}

func (t TimeToken) Before(o TimeToken) bool {
	return t.minutes < o.minutes
}

// Next returns the token one slot width later.
func (t TimeToken) Next() (TimeToken, error) {
	if t.minutes >= dayMinutes {
		return TimeToken{}, &OutOfRangeError{Token: t}
	}
	return t.step(), nil
}

func (t TimeToken) step() TimeToken {
	return TimeToken{minutes: t.minutes + widthMinutes}
}

// Display renders the token as 9:30AM.
func (t TimeToken) Display() string {
	hour := (t.minutes / 60) % 24
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%02d%s", hour, t.Minute(), suffix)
}

// Clock renders the token as a SQL TIME literal.
func (t TimeToken) Clock() string {
	return fmt.Sprintf("%02d:%02d:00", t.Hour(), t.Minute())
}

// On places the token's wall clock time on the calendar date of d, in d's
// location. DayEnd lands on midnight of the following day.
func (t TimeToken) On(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, t.Hour(), t.Minute(), 0, 0, d.Location())
}

// Interval yields the tokens in [start, end). The sequence can be ranged
// over any number of times.
func Interval(start, end TimeToken) (iter.Seq[TimeToken], error) {
	if start.Compare(end) >= 0 {
		return nil, &InvalidRangeError{Start: start, End: end}
	}
	return func(yield func(TimeToken) bool) {
		for t := start; t.Before(end); t = t.step() {
			if !yield(t) {
				return
			}
		}
	}, nil
}

type Choice struct {
	Token string `json:"token"`
	Label string `json:"label"`
}

// Choices lists the tokens between min and max, both inclusive, for use in
// a selection control.
func Choices(min, max TimeToken) ([]Choice, error) {
	if max.Before(min) {
		return nil, &InvalidRangeError{Start: min, End: max}
	}
	choices := make([]Choice, 0, (max.minutes-min.minutes)/widthMinutes+1)
	for t := min; !max.Before(t); t = t.step() {
		choices = append(choices, Choice{Token: t.Token(), Label: t.Display()})
	}
	return choices, nil
}
