package domain

import (
	"time"
)

type Role string

const (
	RoleStaff   Role = "staff"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	CenterID     int64     `json:"centerID"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}

// DisplayName falls back to the username when no full name is set.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Actor is the authenticated user on whose behalf an operation runs.
type Actor struct {
	UserID int64
	Role   Role
}

func (a Actor) IsManager() bool {
	return a.Role == RoleManager || a.Role == RoleAdmin
}

// CanEditStaff reports whether the actor may change the offers of staffID.
func (a Actor) CanEditStaff(staffID int64) bool {
	return a.UserID == staffID || a.IsManager()
}
