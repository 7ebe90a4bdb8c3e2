package domain

import "time"

// User is the domain entity for a user account.
// PasswordHash is opaque: only the hasher reads or writes it.
type User struct {
	ID                 int64
	Username           string
	Email              string
	PasswordHash       string
	ProfilePicture     string
	ProfileDescription string

	CreatedAt time.Time
	UpdatedAt time.Time
}
