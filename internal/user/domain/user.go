package domain

import (
	"errors"
	"time"
)

// User is the core user entity.
type User struct {
	ID            string
	Email         string
	PasswordHash  string // empty for guest and OAuth users
	IsGuest       bool
	Role          Role
	Name          string
	PreferredLang string
	AvatarURL     string
	DeletedAt     *time.Time // nil when not soft-deleted
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Name == "" {
		return errors.New("name is required")
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.PreferredLang == "" {
		u.PreferredLang = "en"
	}
	return nil
}
