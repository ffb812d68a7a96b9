package slot

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Tokens are stored as TIME (time tokens) and as their string form (day
// tokens), and travel through JSON in their string form.

func (t TimeToken) Value() (driver.Value, error) {
	return t.Clock(), nil
}

func (t *TimeToken) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return t.scanClock(v)
	case []byte:
		return t.scanClock(string(v))
	case time.Time:
		parsed, err := NewTimeToken(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	default:
		return fmt.Errorf("slot: cannot scan %T into TimeToken", src)
	}
}

// scanClock accepts HH:MM and HH:MM:SS, including 24:00:00.
func (t *TimeToken) scanClock(s string) error {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return &InvalidTokenError{Token: s, Reason: "expected HH:MM:SS"}
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return &InvalidTokenError{Token: s, Reason: "expected HH:MM:SS"}
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return &InvalidTokenError{Token: s, Reason: "expected HH:MM:SS"}
	}
	if len(parts) > 2 && strings.Trim(parts[2], "0.") != "" {
		return &InvalidTokenError{Token: s, Reason: "not on a slot boundary"}
	}
	parsed, err := TimeTokenAt(hour, minute)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeToken) MarshalText() ([]byte, error) {
	return []byte(t.Token()), nil
}

func (t *TimeToken) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeToken(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (d DayToken) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, fmt.Errorf("slot: zero DayToken")
	}
	return d.Token(), nil
}

func (d *DayToken) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("slot: cannot scan %T into DayToken", src)
	}
	parsed, err := ParseDayToken(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d DayToken) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.Token()), nil
}

func (d *DayToken) UnmarshalText(b []byte) error {
	parsed, err := ParseDayToken(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
