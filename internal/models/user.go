package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
//
// Users are optional: the ledger works with plain identities. A signed-in
// user's DisplayName is used as their identity (default payer, friend balances).
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's email address (unique, lowercase).
	Email string

	// DisplayName is the name shown to friends and used as the ledger identity.
	DisplayName string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	CreatedAt int64
	UpdatedAt int64
}

// NewUser builds a user with a fresh ID and timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
