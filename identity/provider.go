// Package identity authenticates users against Firebase Authentication or a
// local bcrypt/JWT implementation behind one interface.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials is returned when email or password do not match
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken is returned when a session token cannot be verified
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrEmailTaken is returned when signing up with a registered email
	ErrEmailTaken = errors.New("email already registered")
)

// Credentials is what a new account is created from
type Credentials struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// Session is an authenticated session token
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Identity is the verified owner of a session token
type Identity struct {
	UID   string
	Email string
}

// Provider is the identity backend used by the auth service and middleware
type Provider interface {
	// SignUp registers a new account and returns its UID
	SignUp(ctx context.Context, creds Credentials) (string, error)
	// SignIn exchanges email and password for a session
	SignIn(ctx context.Context, email, password string) (*Session, error)
	// Verify checks a session token
	Verify(ctx context.Context, token string) (*Identity, error)
}
