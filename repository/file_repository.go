package repository

import (
	"context"
	"fmt"

	"petitionhub-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FileRepository handles database operations for petition attachments
type FileRepository struct {
	db *pgxpool.Pool
}

// NewFileRepository creates a new file repository
func NewFileRepository(db *pgxpool.Pool) *FileRepository {
	return &FileRepository{db: db}
}

// Create creates a new attachment record. The ID is generated when unset;
// callers that already wrote the bytes under an ID pass it in.
func (r *FileRepository) Create(ctx context.Context, file *models.Attachment) error {
	const op = "repository.FileRepository.Create"

	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}

	query := `
		INSERT INTO attachments (
			id, petition_id, owner_id, filename, mime_type, size, storage_path
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRow(
		ctx, query,
		file.ID,
		file.PetitionID,
		file.OwnerID,
		file.Filename,
		file.MimeType,
		file.Size,
		file.StoragePath,
	).Scan(&file.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, pgError(err, ErrAlreadyExists))
	}
	return nil
}

// GetByID retrieves an attachment by ID
func (r *FileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Attachment, error) {
	const op = "repository.FileRepository.GetByID"

	file := &models.Attachment{}
	query := `
		SELECT id, petition_id, owner_id, filename, mime_type, size, storage_path, created_at
		FROM attachments
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&file.ID,
		&file.PetitionID,
		&file.OwnerID,
		&file.Filename,
		&file.MimeType,
		&file.Size,
		&file.StoragePath,
		&file.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, pgReadError(err))
	}

	return file, nil
}

// ListByPetitionID retrieves all attachments for a petition
func (r *FileRepository) ListByPetitionID(ctx context.Context, petitionID uuid.UUID) ([]*models.Attachment, error) {
	const op = "repository.FileRepository.ListByPetitionID"

	query := `
		SELECT id, petition_id, owner_id, filename, mime_type, size, storage_path, created_at
		FROM attachments
		WHERE petition_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, petitionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	files := []*models.Attachment{}
	for rows.Next() {
		file := &models.Attachment{}
		err := rows.Scan(
			&file.ID,
			&file.PetitionID,
			&file.OwnerID,
			&file.Filename,
			&file.MimeType,
			&file.Size,
			&file.StoragePath,
			&file.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return files, nil
}
