package slot

import (
	"fmt"
	"time"
)

// DayToken is either a concrete calendar date or a weekday of the recurring
// weekly template. Dated tokens render as YYYYMMDD, regular ones as w1..w7
// with Monday = 1.
type DayToken struct {
	regular bool
	weekday time.Weekday
	year    int
	month   time.Month
	day     int
}

func Date(year int, month time.Month, day int) DayToken {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	y, m, d := t.Date()
	return DayToken{weekday: t.Weekday(), year: y, month: m, day: d}
}

// DateOf returns the dated token for the calendar date of t in t's location.
func DateOf(t time.Time) DayToken {
	y, m, d := t.Date()
	return Date(y, m, d)
}

func Regular(w time.Weekday) DayToken {
	return DayToken{regular: true, weekday: w}
}

func ParseDayToken(s string) (DayToken, error) {
	switch {
	case len(s) == 2 && s[0] == 'w':
		if s[1] < '1' || s[1] > '7' {
			return DayToken{}, &InvalidTokenError{Token: s, Reason: "weekday must be w1..w7"}
		}
		return Regular(FromISOWeekday(int(s[1] - '0'))), nil
	case len(s) == 8:
		t, err := time.Parse("20060102", s)
		if err != nil {
			return DayToken{}, &InvalidTokenError{Token: s, Reason: "expected YYYYMMDD"}
		}
		return DateOf(t), nil
	default:
		return DayToken{}, &InvalidTokenError{Token: s, Reason: "expected YYYYMMDD or w1..w7"}
	}
}

func (d DayToken) Token() string {
	if d.regular {
		return fmt.Sprintf("w%d", ISOWeekday(d.weekday))
	}
	return fmt.Sprintf("%04d%02d%02d", d.year, int(d.month), d.day)
}

func (d DayToken) String() string {
	return d.Token()
}

func (d DayToken) IsRegular() bool {
	return d.regular
}

// IsZero reports whether d is the zero value, which is neither a valid
// date nor a valid weekday.
func (d DayToken) IsZero() bool {
	return d == DayToken{}
}

func (d DayToken) Weekday() time.Weekday {
	return d.weekday
}

// Template returns the regular token whose rows are copied onto d.
func (d DayToken) Template() DayToken {
	return Regular(d.weekday)
}

// Date returns midnight UTC of a dated token. ok is false for regular tokens.
func (d DayToken) Date() (t time.Time, ok bool) {
	if d.regular || d.IsZero() {
		return time.Time{}, false
	}
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC), true
}

func (d DayToken) Display() string {
	if d.regular {
		return "Every " + d.weekday.String()
	}
	t, _ := d.Date()
	return t.Format("Mon, Jan 2 2006")
}

// ISOWeekday maps Monday..Sunday to 1..7.
func ISOWeekday(w time.Weekday) int {
	if w == time.Sunday {
		return 7
	}
	return int(w)
}

func FromISOWeekday(n int) time.Weekday {
	return time.Weekday(n % 7)
}
