package changelog

import (
	"fmt"
	"slices"

	"github.com/s2c2-dev/staffing/backend/internal/domain"
)

// Names resolves the display names used in entry descriptions.
type Names interface {
	StaffName(id int64) string
	LocationName(id int64) string
}

// MapNames is a Names backed by two lookup tables. Unknown ids render as
// "#<id>".
type MapNames struct {
	Staff     map[int64]string
	Locations map[int64]string
}

func (n MapNames) StaffName(id int64) string {
	if name, ok := n.Staff[id]; ok {
		return name
	}
	return fmt.Sprintf("#%d", id)
}

func (n MapNames) LocationName(id int64) string {
	if name, ok := n.Locations[id]; ok {
		return name
	}
	return fmt.Sprintf("#%d", id)
}

// Describe renders the human readable message of an entry.
func Describe(e domain.LogEntry, names Names) string {
	switch e.Type {
	case domain.LogTemplateOpStaff, domain.LogTemplateOpClassroom:
		return "copied from template"
	case domain.LogMeetUpdate, domain.LogMeetCascadeDeleteOffer, domain.LogMeetCascadeDeleteNeed:
		p, err := ParseMeetRef(e.Ref)
		if err != nil {
			return e.Message
		}
		switch e.Type {
		case domain.LogMeetUpdate:
			return fmt.Sprintf("assignment updated (%s): %s", p.Start.Display(), e.Message)
		case domain.LogMeetCascadeDeleteOffer:
			return fmt.Sprintf("assignment updated due to staff availability change: %s on %s", names.StaffName(p.StaffID), p.Start.Display())
		default:
			return fmt.Sprintf("assignment updated due to classroom needs change: %s on %s", names.LocationName(p.LocationID), p.Start.Display())
		}
	default:
		return e.Message
	}
}

// ReferencedIDs collects the staff and location ids named by the refs of
// entries, for resolving names in one query each.
func ReferencedIDs(entries []domain.LogEntry) (staffIDs, locationIDs []int64) {
	for _, e := range entries {
		if !IsMeetType(e.Type) {
			continue
		}
		p, err := ParseMeetRef(e.Ref)
		if err != nil {
			continue
		}
		if !slices.Contains(staffIDs, p.StaffID) {
			staffIDs = append(staffIDs, p.StaffID)
		}
		if !slices.Contains(locationIDs, p.LocationID) {
			locationIDs = append(locationIDs, p.LocationID)
		}
	}
	return staffIDs, locationIDs
}

// AffectedStaff lists the staff members whose schedule an entry changes.
// Need updates return nothing because they do not name staff.
func AffectedStaff(e domain.LogEntry) []int64 {
	switch e.Type {
	case domain.LogOfferUpdate, domain.LogTemplateOpStaff:
		id, _, err := ParseDayRef(e.Ref)
		if err != nil {
			return nil
		}
		return []int64{id}
	case domain.LogMeetUpdate, domain.LogMeetCascadeDeleteOffer, domain.LogMeetCascadeDeleteNeed:
		p, err := ParseMeetRef(e.Ref)
		if err != nil {
			return nil
		}
		return []int64{p.StaffID}
	default:
		return nil
	}
}

// Recipient returns the single user who should hear about an entry they did
// not cause. Manager fan-out for MEET_CASCADE_DELETE_OFFER is handled
// elsewhere, so it has no recipient here.
func Recipient(e domain.LogEntry) (int64, bool) {
	switch e.Type {
	case domain.LogOfferUpdate, domain.LogTemplateOpStaff:
		id, _, err := ParseDayRef(e.Ref)
		if err != nil || id == e.CreatorID {
			return 0, false
		}
		return id, true
	case domain.LogMeetUpdate, domain.LogMeetCascadeDeleteNeed:
		p, err := ParseMeetRef(e.Ref)
		if err != nil || p.StaffID == e.CreatorID {
			return 0, false
		}
		return p.StaffID, true
	default:
		return 0, false
	}
}
