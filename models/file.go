package models

import (
	"time"

	"github.com/google/uuid"
)

// Attachment represents a file uploaded alongside a petition
type Attachment struct {
	ID          uuid.UUID `json:"id" firestore:"-"`
	PetitionID  uuid.UUID `json:"petition_id" firestore:"-"`
	OwnerID     string    `json:"owner_id" firestore:"ownerId"`
	Filename    string    `json:"filename" firestore:"filename"`
	MimeType    string    `json:"mime_type" firestore:"mimeType"`
	Size        int64     `json:"size" firestore:"size"`
	StoragePath string    `json:"-" firestore:"storagePath"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
}
