package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"petitionhub-backend/identity"
	"petitionhub-backend/models"
	"petitionhub-backend/repository"
	"petitionhub-backend/storage"

	"github.com/google/uuid"
)

var testNow = time.Date(2026, time.October, 17, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type stubPetitionStore struct {
	mu         sync.Mutex
	petitions  map[uuid.UUID]*models.Petition
	signatures map[uuid.UUID][]*models.Signature
	gets       int
	// afterSign runs once a signature is committed, outside the lock
	afterSign func(petitionID uuid.UUID)
}

func newStubPetitionStore() *stubPetitionStore {
	return &stubPetitionStore{
		petitions:  map[uuid.UUID]*models.Petition{},
		signatures: map[uuid.UUID][]*models.Signature{},
	}
}

func (s *stubPetitionStore) put(p *models.Petition) *models.Petition {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.petitions[p.ID] = p
	return p
}

func (s *stubPetitionStore) Create(ctx context.Context, p *models.Petition) error {
	p.ID = uuid.New()
	p.CreatedAt = testNow
	p.UpdatedAt = testNow
	s.put(p)
	return nil
}

func (s *stubPetitionStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Petition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	p, ok := s.petitions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubPetitionStore) ListByCreator(ctx context.Context, creatorID string) ([]*models.Petition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Petition{}
	for _, p := range s.petitions {
		if p.CreatorID == creatorID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *stubPetitionStore) ListPublic(ctx context.Context, f models.PetitionFilter) ([]*models.Petition, error) {
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
		out = append(out, p)
	}
	return out, nil
}

func (s *stubPetitionStore) AddSignature(ctx context.Context, sig *models.Signature) error {
	if err := s.addSignature(sig); err != nil {
		return err
	}
	if s.afterSign != nil {
		s.afterSign(sig.PetitionID)
	}
	return nil
}

func (s *stubPetitionStore) addSignature(sig *models.Signature) error {
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
	if sig.SignedAt.IsZero() {
		sig.SignedAt = testNow
	}
	s.signatures[sig.PetitionID] = append(s.signatures[sig.PetitionID], sig)
	p.Signatures++
	return nil
}

func (s *stubPetitionStore) ListSignatures(ctx context.Context, petitionID uuid.UUID, since time.Time) ([]*models.Signature, error) {
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

type stubFileStore struct {
	mu    sync.Mutex
	files map[uuid.UUID]*models.Attachment
	err   error
}

func newStubFileStore() *stubFileStore {
	return &stubFileStore{files: map[uuid.UUID]*models.Attachment{}}
}

func (s *stubFileStore) Create(ctx context.Context, f *models.Attachment) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f.CreatedAt = testNow
	s.files[f.ID] = f
	return nil
}

func (s *stubFileStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return f, nil
}

func (s *stubFileStore) ListByPetitionID(ctx context.Context, petitionID uuid.UUID) ([]*models.Attachment, error) {
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

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (m *memStorage) Upload(ctx context.Context, petitionID, fileID uuid.UUID, filename string, data io.Reader) (string, error) {
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	path := "petitions/" + petitionID.String() + "/" + fileID.String() + "_" + filename
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = b
	return path, nil
}

func (m *memStorage) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[path]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memStorage) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	return nil
}

type stubCache struct {
	mu          sync.Mutex
	entries     map[uuid.UUID]*models.Petition
	invalidated []uuid.UUID
}

func newStubCache() *stubCache {
	return &stubCache{entries: map[uuid.UUID]*models.Petition{}}
}

func (c *stubCache) Get(ctx context.Context, id uuid.UUID) (*models.Petition, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[id]
	return p, ok, nil
}

func (c *stubCache) Set(ctx context.Context, p *models.Petition) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[p.ID] = p
	return nil
}

func (c *stubCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

type stubUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: map[string]*models.User{}}
}

func (s *stubUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (s *stubUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubUserStore) Create(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return repository.ErrAlreadyExists
	}
	s.users[u.ID] = u
	return nil
}

func (s *stubUserStore) Update(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

// stubProvider behaves like a remote identity service: it keeps its own
// accounts and never touches the profile store
type stubProvider struct {
	mu       sync.Mutex
	accounts map[string]string // email -> password
	uids     map[string]string // email -> uid
}

func newStubProvider() *stubProvider {
	return &stubProvider{accounts: map[string]string{}, uids: map[string]string{}}
}

func (p *stubProvider) SignUp(ctx context.Context, creds identity.Credentials) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	email := strings.ToLower(creds.Email)
	if _, ok := p.accounts[email]; ok {
		return "", identity.ErrEmailTaken
	}
	uid := "uid-" + email
	p.accounts[email] = creds.Password
	p.uids[email] = uid
	return uid, nil
}

func (p *stubProvider) SignIn(ctx context.Context, email, password string) (*identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	email = strings.ToLower(email)
	if pw, ok := p.accounts[email]; !ok || pw != password {
		return nil, identity.ErrInvalidCredentials
	}
	return &identity.Session{Token: "token-" + email, UserID: p.uids[email], ExpiresAt: testNow.Add(time.Hour)}, nil
}

func (p *stubProvider) Verify(ctx context.Context, token string) (*identity.Identity, error) {
	return nil, identity.ErrInvalidToken
}
