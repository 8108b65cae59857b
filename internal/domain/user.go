package domain

import "time"

// User is the portal identity. Email is unique and is the token subject.
type User struct {
	ID         string
	Email      string
	Role       Role
	StudentNum *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Credential is the login secret owned exclusively by one user.
type Credential struct {
	UserID       string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
