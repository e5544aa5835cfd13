package handlers

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"petitionhub-backend/identity"
	"petitionhub-backend/metrics"
	"petitionhub-backend/middleware"
	"petitionhub-backend/models"
	"petitionhub-backend/repository"
	"petitionhub-backend/service"
	"petitionhub-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type memPetitions struct {
	mu         sync.Mutex
	petitions  map[uuid.UUID]*models.Petition
	signatures map[uuid.UUID][]*models.Signature
	// creators, when set, enforces the creator foreign key like Postgres does
	creators *memUsers
}

func newMemPetitions() *memPetitions {
	return &memPetitions{
		petitions:  map[uuid.UUID]*models.Petition{},
		signatures: map[uuid.UUID][]*models.Signature{},
	}
}

func (s *memPetitions) Create(ctx context.Context, p *models.Petition) error {
	if s.creators != nil {
		if _, err := s.creators.GetByID(ctx, p.CreatorID); err != nil {
			return repository.ErrNotFound
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = testNow
	p.UpdatedAt = testNow
	cp := *p
	s.petitions[p.ID] = &cp
	return nil
}

func (s *memPetitions) GetByID(ctx context.Context, id uuid.UUID) (*models.Petition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.petitions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memPetitions) ListByCreator(ctx context.Context, creatorID string) ([]*models.Petition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Petition{}
	for _, p := range s.petitions {
		if p.CreatorID == creatorID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memPetitions) ListPublic(ctx context.Context, f models.PetitionFilter) ([]*models.Petition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Petition{}
	for _, p := range s.petitions {
		if p.Visibility != models.VisibilityPublic {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(f.Search)) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memPetitions) AddSignature(ctx context.Context, sig *models.Signature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.petitions[sig.PetitionID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, existing := range s.signatures[sig.PetitionID] {
		if strings.EqualFold(existing.Email, sig.Email) {
			return repository.ErrAlreadySigned
		}
	}
	sig.ID = uuid.New()
	sig.SignedAt = testNow
	s.signatures[sig.PetitionID] = append(s.signatures[sig.PetitionID], sig)
	p.Signatures++
	return nil
}

func (s *memPetitions) ListSignatures(ctx context.Context, petitionID uuid.UUID, since time.Time) ([]*models.Signature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Signature{}
	for _, sig := range s.signatures[petitionID] {
		if !sig.SignedAt.Before(since) {
			out = append(out, sig)
		}
	}
	return out, nil
}

type memFiles struct {
	mu    sync.Mutex
	files map[uuid.UUID]*models.Attachment
}

func newMemFiles() *memFiles {
	return &memFiles{files: map[uuid.UUID]*models.Attachment{}}
}

func (s *memFiles) Create(ctx context.Context, f *models.Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.CreatedAt = testNow
	s.files[f.ID] = f
	return nil
}

func (s *memFiles) GetByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return f, nil
}

func (s *memFiles) ListByPetitionID(ctx context.Context, petitionID uuid.UUID) ([]*models.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Attachment{}
	for _, f := range s.files {
		if f.PetitionID == petitionID {
			out = append(out, f)
		}
	}
	return out, nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]*models.User{}}
}

func (s *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (s *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memUsers) Create(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return repository.ErrAlreadyExists
	}
	s.users[u.ID] = u
	return nil
}

func (s *memUsers) Update(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

// externalProvider verifies tokens issued elsewhere, the way Firebase does:
// the identity is valid but no profile row was ever written for it
type externalProvider struct {
	*identity.LocalProvider
	tokens map[string]*identity.Identity
}

func (p *externalProvider) Verify(ctx context.Context, token string) (*identity.Identity, error) {
	if id, ok := p.tokens[token]; ok {
		return id, nil
	}
	return nil, identity.ErrInvalidToken
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

// testEnv is a fully wired router over in-memory stores, local file storage
// and the local identity provider
type testEnv struct {
	router    *gin.Engine
	petitions *memPetitions
	files     *memFiles
	users     *memUsers
	provider  *identity.LocalProvider
	metrics   *metrics.Metrics
	registry  *prometheus.Registry
	deps      RouterDeps
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := slog.New(slog.DiscardHandler)
	env := &testEnv{
		petitions: newMemPetitions(),
		files:     newMemFiles(),
		users:     newMemUsers(),
		registry:  prometheus.NewRegistry(),
	}
	env.metrics = metrics.NewWithRegistry(env.registry, env.registry)
	env.provider = identity.NewLocalProvider(env.users, "test-secret", time.Hour,
		identity.WithBcryptCost(bcrypt.MinCost),
		identity.WithClock(fixedClock),
	)

	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	petitionService := service.NewPetitionService(
		service.WithPetitionStore(env.petitions),
		service.WithFileStore(env.files),
		service.WithStorage(files),
		service.WithMetrics(env.metrics),
		service.WithLogger(log),
		service.WithClock(fixedClock),
	)
	authService := service.NewAuthService(
		service.WithIdentityProvider(env.provider),
		service.WithUserStore(env.users),
		service.AuthWithMetrics(env.metrics),
		service.AuthWithLogger(log),
	)

	env.deps = RouterDeps{
		Petitions:   NewPetitionHandler(petitionService, log),
		Files:       NewFileHandler(petitionService, 1, log),
		Auth:        NewAuthHandler(authService, log),
		Health:      NewHealthHandler("petitionhub", "test", stubPinger{}),
		Identity:    env.provider,
		Profiles:    authService,
		Metrics:     env.metrics,
		SignLimiter: middleware.NewIPRateLimiter(1000, 1000),
		CORSOrigins: []string{"http://localhost:3000"},
		Log:         log,
	}
	env.router = NewRouter(env.deps)
	return env
}

// signUp registers an account directly with the provider and returns a
// bearer token for it
func (e *testEnv) signUp(t *testing.T, email string) (token, uid string) {
	t.Helper()
	ctx := context.Background()
	uid, err := e.provider.SignUp(ctx, identity.Credentials{
		Email:     email,
		Password:  "secret1",
		FirstName: "Test",
		LastName:  "User",
	})
	require.NoError(t, err)
	session, err := e.provider.SignIn(ctx, email, "secret1")
	require.NoError(t, err)
	return session.Token, uid
}

func (e *testEnv) seedPetition(t *testing.T, p *models.Petition) *models.Petition {
	t.Helper()
	if p.Title == "" {
		p.Title = "Protect the city forest"
	}
	if p.Description == "" {
		p.Description = strings.Repeat("A petition description long enough. ", 3)
	}
	if p.Category == "" {
		p.Category = models.CategoryEnvironment
	}
	if p.Target == 0 {
		p.Target = 5000
	}
	if p.Deadline.IsZero() {
		p.Deadline = testNow.AddDate(0, 1, 0)
	}
	if p.Visibility == "" {
		p.Visibility = models.VisibilityPublic
	}
	require.NoError(t, e.petitions.Create(context.Background(), p))
	return p
}
