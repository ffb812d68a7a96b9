package changelog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

// Refs are read back out of historical rows, so their layout is fixed:
//
//	day ref:  <target_id>,<day_token>
//	meet ref: <staff_id>,<location_id>,<day_token>,<time_token>

func DayRef(targetID int64, day slot.DayToken) string {
	return fmt.Sprintf("%d,%s", targetID, day.Token())
}

func MeetRef(staffID, locationID int64, day slot.DayToken, start slot.TimeToken) string {
	return fmt.Sprintf("%d,%d,%s,%s", staffID, locationID, day.Token(), start.Token())
}

func ParseDayRef(ref string) (int64, slot.DayToken, error) {
	parts := strings.Split(ref, ",")
	if len(parts) != 2 {
		return 0, slot.DayToken{}, fmt.Errorf("changelog: malformed day ref %q", ref)
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, slot.DayToken{}, fmt.Errorf("changelog: malformed day ref %q: %w", ref, err)
	}
	day, err := slot.ParseDayToken(parts[1])
	if err != nil {
		return 0, slot.DayToken{}, err
	}
	return id, day, nil
}

type MeetRefParts struct {
	StaffID    int64
	LocationID int64
	Day        slot.DayToken
	Start      slot.TimeToken
}

func ParseMeetRef(ref string) (MeetRefParts, error) {
	var p MeetRefParts

	parts := strings.Split(ref, ",")
	if len(parts) != 4 {
		return p, fmt.Errorf("changelog: malformed meet ref %q", ref)
	}

	var err error
	if p.StaffID, err = strconv.ParseInt(parts[0], 10, 64); err != nil {
		return p, fmt.Errorf("changelog: malformed meet ref %q: %w", ref, err)
	}
	if p.LocationID, err = strconv.ParseInt(parts[1], 10, 64); err != nil {
		return p, fmt.Errorf("changelog: malformed meet ref %q: %w", ref, err)
	}
	if p.Day, err = slot.ParseDayToken(parts[2]); err != nil {
		return p, err
	}
	if p.Start, err = slot.ParseTimeToken(parts[3]); err != nil {
		return p, err
	}

	return p, nil
}

// IsMeetType reports whether entries of type t carry a meet ref.
func IsMeetType(t domain.LogType) bool {
	switch t {
	case domain.LogMeetUpdate, domain.LogMeetCascadeDeleteOffer, domain.LogMeetCascadeDeleteNeed:
		return true
	default:
		return false
	}
}

// NewDayEntry builds an entry for a change to one owner's day.
func NewDayEntry(t domain.LogType, creatorID, targetID int64, day slot.DayToken, message string) domain.LogEntry {
	return domain.LogEntry{
		CreatorID: creatorID,
		Type:      t,
		Ref:       DayRef(targetID, day),
		Message:   message,
	}
}

// NewMeetEntry builds an entry for a change to one meet.
func NewMeetEntry(t domain.LogType, creatorID int64, m domain.Meet, message string) domain.LogEntry {
	return domain.LogEntry{
		CreatorID: creatorID,
		Type:      t,
		Ref:       MeetRef(m.StaffID, m.LocationID, m.Day, m.Start),
		Message:   message,
	}
}
