// Package migrations applies the embedded schema to Postgres.
package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed sql/*.sql
var files embed.FS

func newMigrate(pool *pgxpool.Pool) (*migrate.Migrate, error) {
	source, err := iofs.New(files, "sql")
	if err != nil {
		return nil, err
	}

	db := stdlib.OpenDBFromPool(pool)
	driver, err := pgxv5.WithInstance(db, &pgxv5.Config{})
	if err != nil {
		return nil, err
	}

	return migrate.NewWithInstance("iofs", source, "pgx_v5", driver)
}

// Up applies every pending migration. An up-to-date schema is not an error.
func Up(pool *pgxpool.Pool) error {
	const op = "migrations.Up"

	m, err := newMigrate(pool)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Down rolls back every migration
func Down(pool *pgxpool.Pool) error {
	const op = "migrations.Down"

	m, err := newMigrate(pool)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Version reports the current schema version
func Version(pool *pgxpool.Pool) (uint, bool, error) {
	m, err := newMigrate(pool)
	if err != nil {
		return 0, false, fmt.Errorf("migrations.Version: %w", err)
	}
	defer m.Close()

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}
