package domain

import "time"

// UserProfile is the permissions directory entry for an identity.
type UserProfile struct {
	Email        string
	Name         string
	Role         Role
	EmployeeCode string
	Department   string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
