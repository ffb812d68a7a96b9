package domain

import (
	"time"

	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

type OwnerKind string

const (
	OwnerStaff    OwnerKind = "staff"
	OwnerLocation OwnerKind = "location"
)

// Owner is the staff member of an offer or the location of a need.
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   int64     `json:"id"`
}

func StaffOwner(id int64) Owner    { return Owner{Kind: OwnerStaff, ID: id} }
func LocationOwner(id int64) Owner { return Owner{Kind: OwnerLocation, ID: id} }

// Slot is one offer or need row covering a single time token. Whether it
// belongs to the weekly template or to a concrete date is decided by Day.
type Slot struct {
	ID        int64          `json:"id"`
	Owner     Owner          `json:"owner"`
	Day       slot.DayToken  `json:"day"`
	Start     slot.TimeToken `json:"start"`
	End       slot.TimeToken `json:"end"`
	CreatedAt time.Time      `json:"createdAt"`
}

// MeetStatus values are persisted.
type MeetStatus int16

const (
	MeetInactive MeetStatus = 0
	MeetActive   MeetStatus = 1
	MeetBackup   MeetStatus = 20
)

func (s MeetStatus) String() string {
	switch s {
	case MeetInactive:
		return "inactive"
	case MeetActive:
		return "active"
	case MeetBackup:
		return "backup"
	default:
		return "unknown"
	}
}

// Meet pairs one offer with one need at the same day and token.
type Meet struct {
	ID         int64          `json:"id"`
	OfferID    int64          `json:"offerID"`
	NeedID     int64          `json:"needID"`
	StaffID    int64          `json:"staffID"`
	LocationID int64          `json:"locationID"`
	Day        slot.DayToken  `json:"day"`
	Start      slot.TimeToken `json:"start"`
	Status     MeetStatus     `json:"status"`
}

// MatchedSlot is an offer or need together with its active meet, if any.
type MatchedSlot struct {
	Slot
	Meet *Meet `json:"meet"`
}
