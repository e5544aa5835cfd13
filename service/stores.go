// Package service holds the petition and account use cases on top of the
// stores, identity provider, file storage and cache.
package service

import (
	"context"
	"errors"
	"time"

	"petitionhub-backend/models"

	"github.com/google/uuid"
)

var (
	// ErrForbidden is returned when the caller does not own the resource
	ErrForbidden = errors.New("forbidden")
	// ErrPetitionEnded is returned when signing a petition past its deadline
	ErrPetitionEnded = errors.New("petition has ended")
)

// PetitionStore persists petitions and their signatures
type PetitionStore interface {
	Create(ctx context.Context, petition *models.Petition) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Petition, error)
	ListByCreator(ctx context.Context, creatorID string) ([]*models.Petition, error)
	ListPublic(ctx context.Context, filter models.PetitionFilter) ([]*models.Petition, error)
	// AddSignature inserts the signature and increments the petition's
	// counter atomically
	AddSignature(ctx context.Context, sig *models.Signature) error
	ListSignatures(ctx context.Context, petitionID uuid.UUID, since time.Time) ([]*models.Signature, error)
}

// FileStore persists attachment records
type FileStore interface {
	Create(ctx context.Context, file *models.Attachment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error)
	ListByPetitionID(ctx context.Context, petitionID uuid.UUID) ([]*models.Attachment, error)
}

// UserStore persists user profiles
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// PetitionCache is an optional read-through cache for petition details
type PetitionCache interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Petition, bool, error)
	Set(ctx context.Context, petition *models.Petition) error
	Invalidate(ctx context.Context, id uuid.UUID) error
}
