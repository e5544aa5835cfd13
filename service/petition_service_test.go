package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"petitionhub-backend/metrics"
	"petitionhub-backend/models"
	"petitionhub-backend/repository"
	"petitionhub-backend/validation"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc     *PetitionService
	store   *stubPetitionStore
	files   *stubFileStore
	storage *memStorage
	cache   *stubCache
	metrics *metrics.Metrics
}

func newFixture() *fixture {
	reg := prometheus.NewRegistry()
	f := &fixture{
		store:   newStubPetitionStore(),
		files:   newStubFileStore(),
		storage: newMemStorage(),
		cache:   newStubCache(),
		metrics: metrics.NewWithRegistry(reg, reg),
	}
	f.svc = NewPetitionService(
		WithPetitionStore(f.store),
		WithFileStore(f.files),
		WithStorage(f.storage),
		WithCache(f.cache),
		WithMetrics(f.metrics),
		WithClock(fixedClock),
	)
	return f
}

func validInput() validation.PetitionInput {
	return validation.PetitionInput{
		Title:       "Protect the mangrove forest",
		Description: "Mangroves protect our coastline from erosion and must be preserved for future generations.",
		Target:      validation.IntValue(5000),
		Category:    string(models.CategoryEnvironment),
		Deadline:    testNow.AddDate(0, 1, 0).Format(time.RFC3339),
		Visibility:  string(models.VisibilityPublic),
	}
}

func (f *fixture) seed(creator string, signatures int64, deadline time.Time, visibility models.Visibility) *models.Petition {
	return f.store.put(&models.Petition{
		CreatorID:   creator,
		Title:       "Seeded petition " + uuid.NewString()[:8],
		Description: strings.Repeat("d", 60),
		Category:    models.CategoryEducation,
		Target:      1000,
		Signatures:  signatures,
		Deadline:    deadline,
		Visibility:  visibility,
	})
}

func TestCreatePetition(t *testing.T) {
	f := newFixture()

	res, err := f.svc.CreatePetition(context.Background(), CreatePetitionRequest{
		CreatorID: "creator-1",
		Input:     validInput(),
	})
	require.NoError(t, err)

	p := res.Petition
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, "creator-1", p.CreatorID)
	assert.Equal(t, int64(0), p.Signatures)
	assert.Equal(t, int64(5000), p.Target)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PetitionsCreated))
}

func TestCreatePetition_ValidationErrors(t *testing.T) {
	f := newFixture()
	in := validInput()
	in.Title = "Too short"
	in.Target = validation.IntValue(0)

	_, err := f.svc.CreatePetition(context.Background(), CreatePetitionRequest{CreatorID: "c", Input: in})

	var errs validation.Errors
	require.True(t, errors.As(err, &errs))
	assert.True(t, errs.Has("title", validation.TooShort))
	assert.True(t, errs.Has("target", validation.BelowMinimum))
	assert.Empty(t, f.store.petitions)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ValidationFailures.WithLabelValues("petition", "title", "too_short")))
}

func TestGetPetition_Visibility(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	private := f.seed("owner", 0, testNow.Add(time.Hour), models.VisibilityPrivate)

	_, err := f.svc.GetPetition(ctx, GetPetitionRequest{ID: private.ID})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = f.svc.GetPetition(ctx, GetPetitionRequest{ID: private.ID, ViewerID: "someone-else"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	res, err := f.svc.GetPetition(ctx, GetPetitionRequest{ID: private.ID, ViewerID: "owner"})
	require.NoError(t, err)
	assert.Equal(t, private.ID, res.Petition.ID)
	assert.NotNil(t, res.Attachments)
}

func TestGetPetition_UsesCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.seed("owner", 10, testNow.Add(time.Hour), models.VisibilityPublic)

	_, err := f.svc.GetPetition(ctx, GetPetitionRequest{ID: p.ID})
	require.NoError(t, err)
	_, err = f.svc.GetPetition(ctx, GetPetitionRequest{ID: p.ID})
	require.NoError(t, err)

	assert.Equal(t, 1, f.store.gets)
	assert.Contains(t, f.cache.entries, p.ID)
}

func TestListPetitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.seed("a", 0, testNow.Add(time.Hour), models.VisibilityPublic)
	f.seed("a", 0, testNow.Add(time.Hour), models.VisibilityPrivate)

	res, err := f.svc.ListPetitions(ctx, ListPetitionsRequest{})
	require.NoError(t, err)
	assert.Len(t, res.Petitions, 1)

	res, err = f.svc.ListPetitions(ctx, ListPetitionsRequest{Category: string(models.CategoryHealth)})
	require.NoError(t, err)
	assert.Empty(t, res.Petitions)

	_, err = f.svc.ListPetitions(ctx, ListPetitionsRequest{Category: "Lingkungan"})
	var errs validation.Errors
	require.True(t, errors.As(err, &errs))
	assert.True(t, errs.Has("category", validation.InvalidFormat))
}

func signatureInput(email string) validation.SignatureInput {
	return validation.SignatureInput{Name: "Jane Doe", Email: email, Comment: "Count me in"}
}

func TestSignPetition(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.seed("owner", 1249, testNow.Add(time.Hour), models.VisibilityPublic)
	f.cache.entries[p.ID] = p

	res, err := f.svc.SignPetition(ctx, SignPetitionRequest{PetitionID: p.ID, Input: signatureInput("jane@example.com")})
	require.NoError(t, err)

	assert.Equal(t, int64(1250), res.Petition.Signatures)
	assert.Equal(t, p.ID, res.Signature.PetitionID)
	require.NotNil(t, res.Signature.Comment)
	assert.Equal(t, "Count me in", *res.Signature.Comment)
	require.Contains(t, f.cache.entries, p.ID)
	assert.Equal(t, int64(1250), f.cache.entries[p.ID].Signatures)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Signatures))
}

func TestSignPetition_ReplacesStaleCacheEntry(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.seed("owner", 10, testNow.Add(time.Hour), models.VisibilityPublic)
	stale := *p

	// a concurrent reader repopulates the cache with the old count right
	// after the signature commits
	f.store.afterSign = func(id uuid.UUID) {
		require.NoError(t, f.cache.Set(ctx, &stale))
	}

	_, err := f.svc.SignPetition(ctx, SignPetitionRequest{PetitionID: p.ID, Input: signatureInput("jane@example.com")})
	require.NoError(t, err)

	got, err := f.svc.GetPetition(ctx, GetPetitionRequest{ID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.Petition.Signatures)
}

func TestSignPetition_Rejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	active := f.seed("owner", 0, testNow.Add(time.Hour), models.VisibilityPublic)
	ended := f.seed("owner", 0, testNow, models.VisibilityPublic)

	t.Run("unknown petition", func(t *testing.T) {
		_, err := f.svc.SignPetition(ctx, SignPetitionRequest{PetitionID: uuid.New(), Input: signatureInput("a@example.com")})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("deadline reached", func(t *testing.T) {
		_, err := f.svc.SignPetition(ctx, SignPetitionRequest{PetitionID: ended.ID, Input: signatureInput("a@example.com")})
		assert.ErrorIs(t, err, ErrPetitionEnded)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := f.svc.SignPetition(ctx, SignPetitionRequest{
			PetitionID: active.ID,
			Input:      validation.SignatureInput{Name: "", Email: "jane@"},
		})
		var errs validation.Errors
		require.True(t, errors.As(err, &errs))
		assert.True(t, errs.Has("name", validation.Required))
		assert.True(t, errs.Has("email", validation.InvalidFormat))
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := f.svc.SignPetition(ctx, SignPetitionRequest{PetitionID: active.ID, Input: signatureInput("dup@example.com")})
		require.NoError(t, err)
		_, err = f.svc.SignPetition(ctx, SignPetitionRequest{PetitionID: active.ID, Input: signatureInput("DUP@example.com")})
		assert.ErrorIs(t, err, repository.ErrAlreadySigned)
	})

	got, err := f.store.GetByID(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Signatures)
}

func TestSignPetition_Concurrent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.seed("owner", 0, testNow.Add(time.Hour), models.VisibilityPublic)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.SignPetition(ctx, SignPetitionRequest{
				PetitionID: p.ID,
				Input:      signatureInput(uuid.NewString() + "@example.com"),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := f.store.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.Signatures)
}

func TestDashboard(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	a := f.seed("creator", 1250, testNow.AddDate(0, 1, 0), models.VisibilityPublic)
	f.seed("creator", 4112, testNow.AddDate(0, 1, 0), models.VisibilityPrivate)
	f.seed("creator", 1000, testNow.AddDate(0, -1, 0), models.VisibilityPublic)
	f.seed("someone-else", 99999, testNow.AddDate(0, 1, 0), models.VisibilityPublic)

	f.store.signatures[a.ID] = []*models.Signature{
		{PetitionID: a.ID, SignedAt: testNow.Add(-time.Hour)},
		{PetitionID: a.ID, SignedAt: testNow.AddDate(0, 0, -3)},
		{PetitionID: a.ID, SignedAt: testNow.AddDate(0, 0, -90)},
	}

	res, err := f.svc.Dashboard(ctx, DashboardRequest{CreatorID: "creator"})
	require.NoError(t, err)

	assert.Equal(t, int64(6362), res.Summary.TotalSignatures)
	assert.Len(t, res.Summary.Active, 2)
	assert.Len(t, res.Summary.Ended, 1)
	require.NotNil(t, res.Summary.MostPopular)
	assert.Equal(t, int64(4112), res.Summary.MostPopular.Signatures)

	require.Len(t, res.Daily, DashboardDays)
	var total int64
	for _, d := range res.Daily {
		total += d.Signatures
	}
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "2026-10-17", res.Daily[DashboardDays-1].Date)
}

func TestDashboard_Empty(t *testing.T) {
	f := newFixture()

	res, err := f.svc.Dashboard(context.Background(), DashboardRequest{CreatorID: "nobody"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Summary.TotalSignatures)
	assert.Nil(t, res.Summary.MostPopular)
	assert.Len(t, res.Daily, DashboardDays)
}

func TestUploadAndDownloadAttachment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.seed("owner", 0, testNow.Add(time.Hour), models.VisibilityPrivate)

	_, err := f.svc.UploadAttachment(ctx, UploadAttachmentRequest{
		PetitionID: p.ID, UserID: "intruder", Filename: "a.pdf", Data: strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.UploadAttachment(ctx, UploadAttachmentRequest{
		PetitionID: p.ID, UserID: "owner", Filename: "run.exe", Data: strings.NewReader("x"),
	})
	var errs validation.Errors
	require.True(t, errors.As(err, &errs))
	assert.True(t, errs.Has("file", validation.InvalidFormat))

	up, err := f.svc.UploadAttachment(ctx, UploadAttachmentRequest{
		PetitionID: p.ID, UserID: "owner", Filename: "photo.png", Size: 5, Data: strings.NewReader("image"),
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", up.Attachment.MimeType)
	assert.Contains(t, f.cache.invalidated, p.ID)

	_, err = f.svc.DownloadAttachment(ctx, DownloadAttachmentRequest{ID: up.Attachment.ID})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	dl, err := f.svc.DownloadAttachment(ctx, DownloadAttachmentRequest{ID: up.Attachment.ID, ViewerID: "owner"})
	require.NoError(t, err)
	defer dl.Body.Close()
	data, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	assert.Equal(t, "image", string(data))
}

func TestUploadAttachment_RecordFailureRemovesBytes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	p := f.seed("owner", 0, testNow.Add(time.Hour), models.VisibilityPublic)
	f.files.err = errors.New("db down")

	_, err := f.svc.UploadAttachment(ctx, UploadAttachmentRequest{
		PetitionID: p.ID, UserID: "owner", Filename: "doc.pdf", Data: strings.NewReader("%PDF"),
	})
	require.Error(t, err)
	assert.Empty(t, f.storage.objects)
}

func TestServiceWithoutStore(t *testing.T) {
	svc := NewPetitionService()
	_, err := svc.CreatePetition(context.Background(), CreatePetitionRequest{Input: validInput()})
	assert.Error(t, err)
}
