package domain

import "time"

// Location is a classroom of a center that posts needs.
type Location struct {
	ID        int64     `json:"id"`
	CenterID  int64     `json:"centerID"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
