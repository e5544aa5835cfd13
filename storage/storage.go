// Package storage keeps petition attachment bytes on the local filesystem
// or in S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"petitionhub-backend/config"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no object exists at the storage path
var ErrNotFound = errors.New("file not found")

// Storage interface for file storage operations
type Storage interface {
	// Upload stores a file and returns the storage path
	Upload(ctx context.Context, petitionID, fileID uuid.UUID, filename string, data io.Reader) (string, error)

	// Download retrieves a file by storage path
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes a file by storage path
	Delete(ctx context.Context, storagePath string) error
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// New creates a storage backend from configuration
func New(ctx context.Context, cfg config.Storage) (Storage, error) {
	switch StorageType(cfg.Type) {
	case StorageTypeLocal:
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeS3:
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ContentType returns the MIME type for an accepted attachment extension.
// ok is false for extensions that may not be attached to a petition.
func ContentType(filename string) (string, bool) {
	ct, ok := contentTypes[strings.ToLower(filepath.Ext(filename))]
	return ct, ok
}

// sanitizeFilename keeps the base name and replaces path separators and spaces
func sanitizeFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		name = "file"
	}
	return strings.NewReplacer(" ", "_", "/", "_", "..", "_").Replace(name)
}

// generateStoragePath groups objects by petition and keeps them unique by file ID
func generateStoragePath(petitionID, fileID uuid.UUID, filename string) string {
	return fmt.Sprintf("petitions/%s/%s_%s", petitionID, fileID, sanitizeFilename(filename))
}
