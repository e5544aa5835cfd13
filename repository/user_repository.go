package repository

import (
	"context"
	"fmt"

	"petitionhub-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles database operations for user profiles
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, COALESCE(password_hash, ''), first_name, last_name,
	phone_number, role, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.PhoneNumber,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create inserts a user profile keyed by the identity provider's UID
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	const op = "repository.UserRepository.Create"

	if user.Role == "" {
		user.Role = models.DefaultRole
	}

	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, phone_number, role)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.PhoneNumber,
		user.Role,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, pgError(err, ErrAlreadyExists))
	}
	return nil
}

// GetByID retrieves a user by UID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	const op = "repository.UserRepository.GetByID"

	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, pgReadError(err))
	}
	return user, nil
}

// GetByEmail retrieves a user by email, ignoring case
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "repository.UserRepository.GetByEmail"

	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, pgReadError(err))
	}
	return user, nil
}

// Update saves profile fields. Email and password are owned by the identity provider.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	const op = "repository.UserRepository.Update"

	query := `
		UPDATE users SET
			first_name = $2,
			last_name = $3,
			phone_number = $4,
			role = $5,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(
		ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.PhoneNumber,
		user.Role,
	).Scan(&user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, pgReadError(err))
	}
	return nil
}
