package domain

import "time"

// LogType values are persisted and must not be renumbered.
type LogType int16

const (
	LogOfferUpdate            LogType = 5
	LogNeedUpdate             LogType = 6
	LogMeetUpdate             LogType = 7
	LogTemplateOpStaff        LogType = 11
	LogTemplateOpClassroom    LogType = 12
	LogMeetCascadeDeleteOffer LogType = 16
	LogMeetCascadeDeleteNeed  LogType = 17
)

func (t LogType) String() string {
	switch t {
	case LogOfferUpdate:
		return "offer update"
	case LogNeedUpdate:
		return "need update"
	case LogMeetUpdate:
		return "meet update"
	case LogTemplateOpStaff:
		return "template op staff"
	case LogTemplateOpClassroom:
		return "template op classroom"
	case LogMeetCascadeDeleteOffer:
		return "meet cascade delete offer"
	case LogMeetCascadeDeleteNeed:
		return "meet cascade delete need"
	default:
		return "unknown"
	}
}

type LogEntry struct {
	ID        int64     `json:"id"`
	CreatorID int64     `json:"creatorID"`
	Type      LogType   `json:"type"`
	Ref       string    `json:"ref"`
	Message   string    `json:"message"`
	Updated   time.Time `json:"updated"`
}

// ChangeEvent is published for every committed log entry.
type ChangeEvent struct {
	Entry       LogEntry `json:"entry"`
	Description string   `json:"description"`
}
