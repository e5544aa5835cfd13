package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"petitionhub-backend/identity"
	"petitionhub-backend/metrics"
	"petitionhub-backend/models"
	"petitionhub-backend/repository"
	"petitionhub-backend/validation"
)

// AuthService handles sign-up, sign-in and the current user's profile
type AuthService struct {
	provider identity.Provider
	users    UserStore
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// AuthServiceOption is a functional option for AuthService
type AuthServiceOption func(*AuthService)

// WithIdentityProvider sets the identity provider
func WithIdentityProvider(p identity.Provider) AuthServiceOption {
	return func(s *AuthService) {
		s.provider = p
	}
}

// WithUserStore sets the profile store
func WithUserStore(store UserStore) AuthServiceOption {
	return func(s *AuthService) {
		s.users = store
	}
}

// AuthWithMetrics sets the metrics recorder
func AuthWithMetrics(m *metrics.Metrics) AuthServiceOption {
	return func(s *AuthService) {
		s.metrics = m
	}
}

// AuthWithLogger sets the logger
func AuthWithLogger(log *slog.Logger) AuthServiceOption {
	return func(s *AuthService) {
		s.log = log
	}
}

// NewAuthService creates a new auth service
func NewAuthService(opts ...AuthServiceOption) *AuthService {
	s := &AuthService{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) ready() error {
	if s.provider == nil || s.users == nil {
		return errors.New("auth service not configured")
	}
	return nil
}

// SignUpRequest represents a sign-up form submission
type SignUpRequest struct {
	Input validation.SignUpInput
}

// AuthResult is a signed-in user
type AuthResult struct {
	User    *models.User
	Session *identity.Session
}

// SignUp validates the form, creates the account and its profile and signs
// the new user in
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*AuthResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	in := req.Input
	if err := validation.ValidateSignUp(&in); err != nil {
		s.metrics.ObserveValidation("signup", err)
		return nil, err
	}

	uid, err := s.provider.SignUp(ctx, identity.Credentials{
		Email:     in.Email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
	})
	if err != nil {
		return nil, err
	}

	profile := &models.User{
		ID:        uid,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      models.DefaultRole,
	}
	if in.Phone != "" {
		phone := in.Phone
		profile.PhoneNumber = &phone
	}
	user, err := s.ensureProfile(ctx, profile)
	if err != nil {
		return nil, err
	}

	session, err := s.provider.SignIn(ctx, in.Email, in.Password)
	if err != nil {
		return nil, fmt.Errorf("sign in after sign up: %w", err)
	}

	s.log.Info("user signed up", slog.String("user_id", uid))
	return &AuthResult{User: user, Session: session}, nil
}

// SignInRequest represents a sign-in form submission
type SignInRequest struct {
	Input validation.SignInInput
}

// SignIn validates the form and exchanges the credentials for a session
func (s *AuthService) SignIn(ctx context.Context, req SignInRequest) (*AuthResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	in := req.Input
	if err := validation.ValidateSignIn(&in); err != nil {
		s.metrics.ObserveValidation("signin", err)
		return nil, err
	}

	session, err := s.provider.SignIn(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.ensureProfile(ctx, &models.User{ID: session.UserID, Email: in.Email, Role: models.DefaultRole})
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Session: session}, nil
}

// CurrentUserRequest identifies the verified caller
type CurrentUserRequest struct {
	UserID string
	Email  string
}

// CurrentUser returns the caller's profile, creating a default one the first
// time a verified identity is seen without a profile
func (s *AuthService) CurrentUser(ctx context.Context, req CurrentUserRequest) (*models.User, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.ensureProfile(ctx, &models.User{ID: req.UserID, Email: req.Email, Role: models.DefaultRole})
}

// SyncProfile creates the caller's default profile when it is missing
func (s *AuthService) SyncProfile(ctx context.Context, uid, email string) error {
	_, err := s.CurrentUser(ctx, CurrentUserRequest{UserID: uid, Email: email})
	return err
}

// ensureProfile returns the stored profile for p.ID or stores p
func (s *AuthService) ensureProfile(ctx context.Context, p *models.User) (*models.User, error) {
	user, err := s.users.GetByID(ctx, p.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if err := s.users.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			// created concurrently
			return s.users.GetByID(ctx, p.ID)
		}
		return nil, err
	}
	s.log.Info("user profile synced", slog.String("user_id", p.ID))
	return p, nil
}
