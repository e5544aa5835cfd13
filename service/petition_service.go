package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"petitionhub-backend/analytics"
	"petitionhub-backend/logger"
	"petitionhub-backend/metrics"
	"petitionhub-backend/models"
	"petitionhub-backend/repository"
	"petitionhub-backend/storage"
	"petitionhub-backend/validation"

	"github.com/google/uuid"
)

// DashboardDays is the length of the dashboard's daily signature series
const DashboardDays = 30

// PetitionService handles business logic for petitions
type PetitionService struct {
	petitions PetitionStore
	files     FileStore
	storage   storage.Storage
	cache     PetitionCache
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time
}

// PetitionServiceOption is a functional option for PetitionService
type PetitionServiceOption func(*PetitionService)

// WithPetitionStore sets the petition store
func WithPetitionStore(store PetitionStore) PetitionServiceOption {
	return func(s *PetitionService) {
		s.petitions = store
	}
}

// WithFileStore sets the attachment record store
func WithFileStore(store FileStore) PetitionServiceOption {
	return func(s *PetitionService) {
		s.files = store
	}
}

// WithStorage sets the attachment byte storage
func WithStorage(st storage.Storage) PetitionServiceOption {
	return func(s *PetitionService) {
		s.storage = st
	}
}

// WithCache enables the petition detail cache
func WithCache(c PetitionCache) PetitionServiceOption {
	return func(s *PetitionService) {
		s.cache = c
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *metrics.Metrics) PetitionServiceOption {
	return func(s *PetitionService) {
		s.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(log *slog.Logger) PetitionServiceOption {
	return func(s *PetitionService) {
		s.log = log
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) PetitionServiceOption {
	return func(s *PetitionService) {
		s.now = now
	}
}

// NewPetitionService creates a new petition service
func NewPetitionService(opts ...PetitionServiceOption) *PetitionService {
	s := &PetitionService{
		log: slog.New(slog.DiscardHandler),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatePetitionRequest represents a request to create a petition
type CreatePetitionRequest struct {
	CreatorID string
	Input     validation.PetitionInput
}

// CreatePetitionResult represents the result of creating a petition
type CreatePetitionResult struct {
	Petition *models.Petition
}

// CreatePetition validates the form and stores the petition with zero signatures
func (s *PetitionService) CreatePetition(ctx context.Context, req CreatePetitionRequest) (*CreatePetitionResult, error) {
	if s.petitions == nil {
		return nil, errors.New("petition store not set")
	}

	petition, err := validation.ValidatePetition(req.Input, s.now())
	if err != nil {
		s.metrics.ObserveValidation("petition", err)
		return nil, err
	}
	petition.CreatorID = req.CreatorID

	if err := s.petitions.Create(ctx, petition); err != nil {
		return nil, err
	}
	s.metrics.PetitionCreated()

	s.log.Info("petition created",
		slog.String("petition_id", petition.ID.String()),
		slog.String("creator_id", petition.CreatorID),
	)
	return &CreatePetitionResult{Petition: petition}, nil
}

// GetPetitionRequest represents a request to get a petition
type GetPetitionRequest struct {
	ID       uuid.UUID
	ViewerID string
}

// GetPetitionResult represents the result of getting a petition
type GetPetitionResult struct {
	Petition    *models.Petition
	Attachments []*models.Attachment
	Now         time.Time
}

// GetPetition retrieves a petition. Private petitions are reported as not
// found to anyone but their creator.
func (s *PetitionService) GetPetition(ctx context.Context, req GetPetitionRequest) (*GetPetitionResult, error) {
	if s.petitions == nil {
		return nil, errors.New("petition store not set")
	}

	petition, err := s.loadPetition(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if !petition.VisibleTo(req.ViewerID) {
		return nil, repository.ErrNotFound
	}

	result := &GetPetitionResult{Petition: petition, Attachments: []*models.Attachment{}, Now: s.now()}
	if s.files != nil {
		files, err := s.files.ListByPetitionID(ctx, petition.ID)
		if err != nil {
			return nil, err
		}
		result.Attachments = files
	}
	return result, nil
}

// loadPetition reads through the cache when one is configured. Cache
// failures are logged and fall back to the store.
func (s *PetitionService) loadPetition(ctx context.Context, id uuid.UUID) (*models.Petition, error) {
	if s.cache != nil {
		petition, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			s.log.Warn("petition cache read failed", slog.String("petition_id", id.String()), logger.Err(err))
		} else if ok {
			return petition, nil
		}
	}

	petition, err := s.petitions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, petition); err != nil {
			s.log.Warn("petition cache write failed", slog.String("petition_id", id.String()), logger.Err(err))
		}
	}
	return petition, nil
}

func (s *PetitionService) refresh(ctx context.Context, petition *models.Petition) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, petition); err != nil {
		s.log.Warn("petition cache write failed", slog.String("petition_id", petition.ID.String()), logger.Err(err))
		s.invalidate(ctx, petition.ID)
	}
}

func (s *PetitionService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.Warn("petition cache invalidation failed", slog.String("petition_id", id.String()), logger.Err(err))
	}
}

// ListPetitionsRequest represents a request for the public petition listing
type ListPetitionsRequest struct {
	Search   string
	Category string
	Limit    int
	Offset   int
}

// ListPetitionsResult represents the public petition listing
type ListPetitionsResult struct {
	Petitions []*models.Petition
	Now       time.Time
}

// ListPetitions returns public petitions, optionally searched by title and
// filtered by category
func (s *PetitionService) ListPetitions(ctx context.Context, req ListPetitionsRequest) (*ListPetitionsResult, error) {
	if s.petitions == nil {
		return nil, errors.New("petition store not set")
	}

	filter := models.PetitionFilter{
		Search: req.Search,
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	if req.Category != "" {
		category := models.Category(req.Category)
		if !category.Valid() {
			return nil, validation.Errors{{
				Field:   "category",
				Kind:    validation.InvalidFormat,
				Message: "Unknown category.",
			}}
		}
		filter.Category = category
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	petitions, err := s.petitions.ListPublic(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ListPetitionsResult{Petitions: petitions, Now: s.now()}, nil
}

// SignPetitionRequest represents a visitor signing a petition
type SignPetitionRequest struct {
	PetitionID uuid.UUID
	Input      validation.SignatureInput
}

// SignPetitionResult holds the stored signature and the updated petition
type SignPetitionResult struct {
	Signature *models.Signature
	Petition  *models.Petition
	Now       time.Time
}

// SignPetition validates and stores a signature. Ended petitions and repeat
// signatures from the same email are rejected.
func (s *PetitionService) SignPetition(ctx context.Context, req SignPetitionRequest) (*SignPetitionResult, error) {
	if s.petitions == nil {
		return nil, errors.New("petition store not set")
	}

	petition, err := s.petitions.GetByID(ctx, req.PetitionID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if petition.IsEnded(now) {
		return nil, ErrPetitionEnded
	}

	sig, err := validation.ValidateSignature(req.Input)
	if err != nil {
		s.metrics.ObserveValidation("signature", err)
		return nil, err
	}
	sig.PetitionID = petition.ID

	if err := s.petitions.AddSignature(ctx, sig); err != nil {
		return nil, err
	}
	s.metrics.SignatureAccepted()

	// A reader may have cached the pre-signature count while the write was in
	// flight, so the cache is overwritten with the reloaded row.
	updated, err := s.petitions.GetByID(ctx, petition.ID)
	if err != nil {
		s.log.Warn("reload after signing failed", slog.String("petition_id", petition.ID.String()), logger.Err(err))
		s.invalidate(ctx, petition.ID)
		petition.Signatures++
		updated = petition
	} else {
		s.refresh(ctx, updated)
	}

	return &SignPetitionResult{Signature: sig, Petition: updated, Now: now}, nil
}

// DashboardRequest represents a creator opening their dashboard
type DashboardRequest struct {
	CreatorID string
}

// DashboardResult is the creator's dashboard at Now
type DashboardResult struct {
	Summary   analytics.Summary
	Petitions []*models.Petition
	Daily     []analytics.DailyCount
	Now       time.Time
}

// Dashboard summarizes the creator's petitions and their daily signatures.
// It is recomputed on every call.
func (s *PetitionService) Dashboard(ctx context.Context, req DashboardRequest) (*DashboardResult, error) {
	if s.petitions == nil {
		return nil, errors.New("petition store not set")
	}

	petitions, err := s.petitions.ListByCreator(ctx, req.CreatorID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	since := now.UTC().Truncate(24*time.Hour).AddDate(0, 0, -(DashboardDays - 1))

	var signatures []*models.Signature
	for _, p := range petitions {
		sigs, err := s.petitions.ListSignatures(ctx, p.ID, since)
		if err != nil {
			return nil, err
		}
		signatures = append(signatures, sigs...)
	}

	return &DashboardResult{
		Summary:   analytics.Summarize(petitions, now),
		Petitions: petitions,
		Daily:     analytics.DailySignatures(signatures, now, DashboardDays),
		Now:       now,
	}, nil
}

// UploadAttachmentRequest represents the creator attaching a file
type UploadAttachmentRequest struct {
	PetitionID uuid.UUID
	UserID     string
	Filename   string
	Size       int64
	Data       io.Reader
}

// UploadAttachmentResult holds the stored attachment record
type UploadAttachmentResult struct {
	Attachment *models.Attachment
}

// UploadAttachment stores a file for a petition the caller created
func (s *PetitionService) UploadAttachment(ctx context.Context, req UploadAttachmentRequest) (*UploadAttachmentResult, error) {
	if s.petitions == nil || s.files == nil || s.storage == nil {
		return nil, errors.New("attachment storage not configured")
	}

	petition, err := s.petitions.GetByID(ctx, req.PetitionID)
	if err != nil {
		return nil, err
	}
	if petition.CreatorID != req.UserID {
		return nil, ErrForbidden
	}

	mimeType, ok := storage.ContentType(req.Filename)
	if !ok {
		err := validation.Errors{{
			Field:   "file",
			Kind:    validation.InvalidFormat,
			Message: "Only PDF and image files can be attached.",
		}}
		s.metrics.ObserveValidation("attachment", err)
		return nil, err
	}

	fileID := uuid.New()
	path, err := s.storage.Upload(ctx, petition.ID, fileID, req.Filename, req.Data)
	if err != nil {
		return nil, fmt.Errorf("upload attachment: %w", err)
	}

	attachment := &models.Attachment{
		ID:          fileID,
		PetitionID:  petition.ID,
		OwnerID:     req.UserID,
		Filename:    req.Filename,
		MimeType:    mimeType,
		Size:        req.Size,
		StoragePath: path,
	}
	if err := s.files.Create(ctx, attachment); err != nil {
		if delErr := s.storage.Delete(ctx, path); delErr != nil {
			s.log.Error("orphaned attachment", slog.String("path", path), logger.Err(delErr))
		}
		return nil, err
	}
	s.invalidate(ctx, petition.ID)

	return &UploadAttachmentResult{Attachment: attachment}, nil
}

// DownloadAttachmentRequest represents a request for attachment bytes
type DownloadAttachmentRequest struct {
	ID       uuid.UUID
	ViewerID string
}

// DownloadAttachmentResult holds the record and an open reader the caller closes
type DownloadAttachmentResult struct {
	Attachment *models.Attachment
	Body       io.ReadCloser
}

// DownloadAttachment opens an attachment. Files of private petitions are
// only served to the creator.
func (s *PetitionService) DownloadAttachment(ctx context.Context, req DownloadAttachmentRequest) (*DownloadAttachmentResult, error) {
	if s.petitions == nil || s.files == nil || s.storage == nil {
		return nil, errors.New("attachment storage not configured")
	}

	attachment, err := s.files.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	petition, err := s.loadPetition(ctx, attachment.PetitionID)
	if err != nil {
		return nil, err
	}
	if !petition.VisibleTo(req.ViewerID) {
		return nil, repository.ErrNotFound
	}

	body, err := s.storage.Download(ctx, attachment.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &DownloadAttachmentResult{Attachment: attachment, Body: body}, nil
}
