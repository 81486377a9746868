// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
)

const (
	MaxUserIDLen   = 128
	MaxUsernameLen = 64
)

var (
	ErrUserIDEmpty     = errors.New("user id empty")
	ErrUserIDTooLong   = errors.New("user id too long")
	ErrUsernameTooLong = errors.New("username too long")
)

type UserID string

// Identity is the authenticated user behind a connection.
// It is fixed once at handshake and never changes for that connection.
type Identity struct {
	ID   UserID `json:"id"`
	Name string `json:"name"`
}

// NewIdentity is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewIdentity(id, name string) (Identity, error) {
	if len(id) == 0 {
		return Identity{}, ErrUserIDEmpty
	}
	if len(id) > MaxUserIDLen {
		return Identity{}, ErrUserIDTooLong
	}
	if len(name) > MaxUsernameLen {
		return Identity{}, ErrUsernameTooLong
	}
	return Identity{ID: UserID(id), Name: name}, nil
}

// UserRecord is what the persistence side knows about a user.
type UserRecord struct {
	ID     UserID    `json:"id" binding:"required"`
	Name   string    `json:"name"`
	Email  string    `json:"email,omitempty"`
	Groups []GroupID `json:"groups"`
}

func (r UserRecord) Identity() Identity {
	return Identity{ID: r.ID, Name: r.Name}
}
