package repository

import (
	"context"
	"fmt"
	"time"

	"petitionhub-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PetitionRepository handles database operations for petitions and their signatures
type PetitionRepository struct {
	db *pgxpool.Pool
}

// NewPetitionRepository creates a new petition repository
func NewPetitionRepository(db *pgxpool.Pool) *PetitionRepository {
	return &PetitionRepository{db: db}
}

const petitionColumns = `id, creator_id, title, description, category, target,
	signatures, deadline, visibility, created_at, updated_at`

func scanPetition(row pgx.Row) (*models.Petition, error) {
	petition := &models.Petition{}
	err := row.Scan(
		&petition.ID,
		&petition.CreatorID,
		&petition.Title,
		&petition.Description,
		&petition.Category,
		&petition.Target,
		&petition.Signatures,
		&petition.Deadline,
		&petition.Visibility,
		&petition.CreatedAt,
		&petition.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return petition, nil
}

func collectPetitions(rows pgx.Rows) ([]*models.Petition, error) {
	defer rows.Close()

	petitions := []*models.Petition{}
	for rows.Next() {
		petition, err := scanPetition(rows)
		if err != nil {
			return nil, err
		}
		petitions = append(petitions, petition)
	}
	return petitions, rows.Err()
}

// Create inserts a new petition. The signature counter always starts at zero.
func (r *PetitionRepository) Create(ctx context.Context, petition *models.Petition) error {
	const op = "repository.PetitionRepository.Create"

	query := `
		INSERT INTO petitions (
			creator_id, title, description, category, target, deadline, visibility
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, signatures, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		petition.CreatorID,
		petition.Title,
		petition.Description,
		petition.Category,
		petition.Target,
		petition.Deadline,
		petition.Visibility,
	).Scan(&petition.ID, &petition.Signatures, &petition.CreatedAt, &petition.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, pgError(err, ErrAlreadyExists))
	}
	return nil
}

// GetByID retrieves a petition by ID
func (r *PetitionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Petition, error) {
	const op = "repository.PetitionRepository.GetByID"

	query := `SELECT ` + petitionColumns + ` FROM petitions WHERE id = $1`

	petition, err := scanPetition(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, pgReadError(err))
	}
	return petition, nil
}

// ListByCreator retrieves every petition a user created, newest first
func (r *PetitionRepository) ListByCreator(ctx context.Context, creatorID string) ([]*models.Petition, error) {
	const op = "repository.PetitionRepository.ListByCreator"

	query := `SELECT ` + petitionColumns + `
		FROM petitions
		WHERE creator_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	petitions, err := collectPetitions(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return petitions, nil
}

// ListPublic retrieves public petitions matching the filter, newest first
func (r *PetitionRepository) ListPublic(ctx context.Context, filter models.PetitionFilter) ([]*models.Petition, error) {
	const op = "repository.PetitionRepository.ListPublic"

	query := `SELECT ` + petitionColumns + `
		FROM petitions
		WHERE visibility = 'public'`

	args := []interface{}{}
	argIndex := 1

	if filter.Search != "" {
		query += fmt.Sprintf(" AND title ILIKE '%%' || $%d || '%%'", argIndex)
		args = append(args, filter.Search)
		argIndex++
	}

	if filter.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argIndex)
		args = append(args, filter.Category)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, filter.Limit)
		argIndex++
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argIndex)
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	petitions, err := collectPetitions(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return petitions, nil
}

// AddSignature stores the signature and increments the petition's counter
// in one transaction. A second signature with the same email (case
// insensitive) fails with ErrAlreadySigned and leaves the counter untouched.
func (r *PetitionRepository) AddSignature(ctx context.Context, sig *models.Signature) error {
	const op = "repository.PetitionRepository.AddSignature"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO signatures (petition_id, name, email, location, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, signed_at`

	err = tx.QueryRow(
		ctx, insert,
		sig.PetitionID,
		sig.Name,
		sig.Email,
		sig.Location,
		sig.Comment,
	).Scan(&sig.ID, &sig.SignedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, pgError(err, ErrAlreadySigned))
	}

	tag, err := tx.Exec(ctx, `
		UPDATE petitions SET
			signatures = signatures + 1,
			updated_at = NOW()
		WHERE id = $1`, sig.PetitionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

// ListSignatures retrieves signatures collected since the given time, oldest first
func (r *PetitionRepository) ListSignatures(ctx context.Context, petitionID uuid.UUID, since time.Time) ([]*models.Signature, error) {
	const op = "repository.PetitionRepository.ListSignatures"

	query := `
		SELECT id, petition_id, name, email, location, comment, signed_at
		FROM signatures
		WHERE petition_id = $1 AND signed_at >= $2
		ORDER BY signed_at`

	rows, err := r.db.Query(ctx, query, petitionID, since)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	signatures := []*models.Signature{}
	for rows.Next() {
		sig := &models.Signature{}
		err := rows.Scan(
			&sig.ID,
			&sig.PetitionID,
			&sig.Name,
			&sig.Email,
			&sig.Location,
			&sig.Comment,
			&sig.SignedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		signatures = append(signatures, sig)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return signatures, nil
}
