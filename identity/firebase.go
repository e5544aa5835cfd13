package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"petitionhub-backend/config"
)

const identityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// AuthClient is the subset of the Firebase Admin auth client in use
type AuthClient interface {
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// NewFirebaseApp initializes the Firebase Admin SDK. Without a credentials
// file the application default credentials are used.
func NewFirebaseApp(ctx context.Context, cfg config.Firebase) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	return app, nil
}

// FirebaseProvider creates accounts with the Admin SDK, signs in through the
// Identity Toolkit REST API and verifies Firebase ID tokens
type FirebaseProvider struct {
	client     AuthClient
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// FirebaseOption configures a FirebaseProvider
type FirebaseOption func(*FirebaseProvider)

// WithIdentityToolkitURL points sign-in at another endpoint, such as the emulator
func WithIdentityToolkitURL(baseURL string) FirebaseOption {
	return func(p *FirebaseProvider) {
		p.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the client used for REST calls
func WithHTTPClient(c *http.Client) FirebaseOption {
	return func(p *FirebaseProvider) {
		p.httpClient = c
	}
}

// NewFirebaseProvider creates a Firebase identity provider
func NewFirebaseProvider(client AuthClient, webAPIKey string, opts ...FirebaseOption) *FirebaseProvider {
	p := &FirebaseProvider{
		client:     client,
		apiKey:     webAPIKey,
		baseURL:    identityToolkitURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SignUp creates the Firebase account. The profile is stored by the caller.
func (p *FirebaseProvider) SignUp(ctx context.Context, creds Credentials) (string, error) {
	const op = "identity.FirebaseProvider.SignUp"

	params := (&auth.UserToCreate{}).
		Email(strings.ToLower(strings.TrimSpace(creds.Email))).
		Password(creds.Password).
		DisplayName(strings.TrimSpace(creds.FirstName + " " + creds.LastName))
	if creds.Phone != "" && strings.HasPrefix(creds.Phone, "+") {
		params = params.PhoneNumber(creds.Phone)
	}

	record, err := p.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", ErrEmailTaken
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return record.UID, nil
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	IDToken   string `json:"idToken"`
	LocalID   string `json:"localId"`
	ExpiresIn string `json:"expiresIn"`
}

type toolkitError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// credential failures reported by accounts:signInWithPassword
var invalidCredentialMessages = []string{
	"INVALID_LOGIN_CREDENTIALS",
	"EMAIL_NOT_FOUND",
	"INVALID_PASSWORD",
	"INVALID_EMAIL",
	"USER_DISABLED",
}

// SignIn exchanges email and password for a Firebase ID token
func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	const op = "identity.FirebaseProvider.SignIn"

	body, err := json.Marshal(signInRequest{Email: strings.TrimSpace(email), Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	endpoint := p.baseURL + "/accounts:signInWithPassword?key=" + url.QueryEscape(p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var tkErr toolkitError
		if err := json.NewDecoder(resp.Body).Decode(&tkErr); err != nil {
			return nil, fmt.Errorf("%s: status %d", op, resp.StatusCode)
		}
		for _, m := range invalidCredentialMessages {
			if strings.HasPrefix(tkErr.Error.Message, m) {
				return nil, ErrInvalidCredentials
			}
		}
		return nil, fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, tkErr.Error.Message)
	}

	var out signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}

	seconds, err := strconv.Atoi(out.ExpiresIn)
	if err != nil {
		seconds = 3600
	}
	return &Session{
		Token:     out.IDToken,
		UserID:    out.LocalID,
		ExpiresAt: time.Now().Add(time.Duration(seconds) * time.Second),
	}, nil
}

// Verify checks a Firebase ID token
func (p *FirebaseProvider) Verify(ctx context.Context, token string) (*Identity, error) {
	decoded, err := p.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	id := &Identity{UID: decoded.UID}
	if email, ok := decoded.Claims["email"].(string); ok {
		id.Email = email
	}
	return id, nil
}
