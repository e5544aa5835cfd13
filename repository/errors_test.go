package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestPgError(t *testing.T) {
	assert.ErrorIs(t, pgError(pgx.ErrNoRows, ErrAlreadyExists), ErrNotFound)
	assert.ErrorIs(t, pgError(fmt.Errorf("wrapped: %w", pgx.ErrNoRows), ErrAlreadyExists), ErrNotFound)

	unique := &pgconn.PgError{Code: pgUniqueViolation}
	assert.ErrorIs(t, pgError(unique, ErrAlreadySigned), ErrAlreadySigned)

	fk := &pgconn.PgError{Code: pgForeignKeyViolation}
	assert.ErrorIs(t, pgError(fk, ErrAlreadySigned), ErrNotFound)

	other := errors.New("connection reset")
	assert.Same(t, other, pgError(other, ErrAlreadySigned))
}

func TestPgReadError(t *testing.T) {
	assert.ErrorIs(t, pgReadError(pgx.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, pgReadError(fmt.Errorf("wrapped: %w", pgx.ErrNoRows)), ErrNotFound)

	// lookups never violate constraints, so driver errors pass through as-is
	unique := &pgconn.PgError{Code: pgUniqueViolation}
	assert.Same(t, unique, pgReadError(unique))
	assert.NotErrorIs(t, pgReadError(unique), ErrAlreadyExists)
}

func TestFirestoreError(t *testing.T) {
	assert.ErrorIs(t, firestoreError(status.Error(codes.NotFound, "missing"), ErrAlreadyExists), ErrNotFound)
	assert.ErrorIs(t, firestoreError(status.Error(codes.AlreadyExists, "dup"), ErrAlreadySigned), ErrAlreadySigned)

	unavailable := status.Error(codes.Unavailable, "down")
	assert.Equal(t, unavailable, firestoreError(unavailable, ErrAlreadyExists))
}

func TestSignatureDocID_IgnoresCaseAndSpace(t *testing.T) {
	petitionID := uuid.New()

	a := signatureDocID(petitionID, "Jane@Example.com")
	b := signatureDocID(petitionID, " jane@example.com ")
	assert.Equal(t, a, b)

	other := signatureDocID(uuid.New(), "jane@example.com")
	assert.NotEqual(t, a, other)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, paginate(items, 0, 0))
	assert.Equal(t, []int{1, 2}, paginate(items, 2, 0))
	assert.Equal(t, []int{3, 4}, paginate(items, 2, 2))
	assert.Equal(t, []int{5}, paginate(items, 10, 4))
	assert.Empty(t, paginate(items, 2, 10))
}
