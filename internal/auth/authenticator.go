// Package auth issues and checks bearer tokens and verifies passwords.
//
// Accounts are optional in SplitEase: a signed-in user's display name becomes
// their ledger identity, but anonymous clients can record expenses too.
package auth

import (
	"context"
	"errors"

	"github.com/mmynk/splitease/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("email already registered")
)

// Authenticator registers accounts and checks credentials.
type Authenticator interface {
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)
}

var _ Authenticator = (*PasswordAuthenticator)(nil)
