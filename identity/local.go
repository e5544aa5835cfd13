package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"petitionhub-backend/models"
	"petitionhub-backend/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CredentialStore is the subset of the user store the local provider needs
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// Claims carried by locally issued session tokens
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// LocalProvider keeps bcrypt password hashes in the user store and issues
// HS256 session tokens
type LocalProvider struct {
	users     CredentialStore
	secretKey []byte
	tokenTTL  time.Duration
	cost      int
	now       func() time.Time
}

// LocalOption configures a LocalProvider
type LocalOption func(*LocalProvider)

// WithBcryptCost overrides the bcrypt cost
func WithBcryptCost(cost int) LocalOption {
	return func(p *LocalProvider) {
		p.cost = cost
	}
}

// WithClock overrides the time source used for token timestamps
func WithClock(now func() time.Time) LocalOption {
	return func(p *LocalProvider) {
		p.now = now
	}
}

// NewLocalProvider creates a local identity provider
func NewLocalProvider(users CredentialStore, secretKey string, ttl time.Duration, opts ...LocalOption) *LocalProvider {
	p := &LocalProvider{
		users:     users,
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
		cost:      bcrypt.DefaultCost,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SignUp stores the account with a bcrypt hash. The profile row is created
// here, so the caller finds it already present.
func (p *LocalProvider) SignUp(ctx context.Context, creds Credentials) (string, error) {
	const op = "identity.LocalProvider.SignUp"

	email := strings.ToLower(strings.TrimSpace(creds.Email))
	if _, err := p.users.GetByEmail(ctx, email); err == nil {
		return "", ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), p.cost)
	if err != nil {
		return "", fmt.Errorf("%s: hash password: %w", op, err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    creds.FirstName,
		LastName:     creds.LastName,
		Role:         models.DefaultRole,
	}
	if creds.Phone != "" {
		phone := creds.Phone
		user.PhoneNumber = &phone
	}

	if err := p.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return "", ErrEmailTaken
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return user.ID, nil
}

// SignIn checks the password and issues a session token
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	const op = "identity.LocalProvider.SignIn"

	user, err := p.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return p.issue(user)
}

func (p *LocalProvider) issue(user *models.User) (*Session, error) {
	now := p.now()
	expires := now.Add(p.tokenTTL)

	claims := Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secretKey)
	if err != nil {
		return nil, fmt.Errorf("identity.LocalProvider.issue: %w", err)
	}
	return &Session{Token: token, UserID: user.ID, ExpiresAt: expires}, nil
}

// Verify parses and validates a locally issued token
func (p *LocalProvider) Verify(ctx context.Context, token string) (*Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return p.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{UID: claims.Subject, Email: claims.Email}, nil
}
