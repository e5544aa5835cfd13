// Package repository persists petitions, signatures, users and attachments
// in Postgres or Firestore.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrNotFound is returned when the requested record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrAlreadySigned is returned when the email has already signed the petition
	ErrAlreadySigned = errors.New("petition already signed with this email")
	// ErrAlreadyExists is returned when a unique record is created twice
	ErrAlreadyExists = errors.New("record already exists")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// pgError maps driver errors onto the package sentinels
func pgError(err error, onUnique error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return onUnique
		case pgForeignKeyViolation:
			return ErrNotFound
		}
	}
	return err
}

// pgReadError maps a missing row onto ErrNotFound for lookups, where no
// constraint can be violated
func pgReadError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// firestoreError maps gRPC status codes returned by Firestore
func firestoreError(err error, onExists error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return ErrNotFound
	case codes.AlreadyExists:
		return onExists
	}
	return err
}
