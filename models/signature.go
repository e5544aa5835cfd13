package models

import (
	"time"

	"github.com/google/uuid"
)

// Signature is one supporter's endorsement of a petition. Signatures are
// append-only.
type Signature struct {
	ID         uuid.UUID `json:"id" firestore:"-"`
	PetitionID uuid.UUID `json:"petition_id" firestore:"-"`
	Name       string    `json:"name" firestore:"name"`
	Email      string    `json:"email" firestore:"email"`
	Location   *string   `json:"location,omitempty" firestore:"location,omitempty"`
	Comment    *string   `json:"comment,omitempty" firestore:"comment,omitempty"`
	SignedAt   time.Time `json:"signed_at" firestore:"signedAt"`
}
