package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open connects to the postgres database at dsn, brings the schema up to
// date and returns a ready link log.
func Open(ctx context.Context, dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not reach database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return NewPostgresStorage(db), nil
}

// migrationsTable keeps the link log's schema history apart from any other
// migrate user sharing the database.
const migrationsTable = "linkscrub_migrations"

// RunMigrations applies every pending migration embedded in the binary.
// A schema that is already current is not an error.
func RunMigrations(db *sql.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		slog.Debug("link log schema already current")
	case err != nil:
		return fmt.Errorf("link log migration: %w", err)
	}

	if version, dirty, err := m.Version(); err == nil {
		slog.Info("link log schema ready", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	}
	return nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("link log migrations: %w", err)
	}
	target, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return nil, fmt.Errorf("link log migration target: %w", err)
	}
	return migrate.NewWithInstance("iofs", src, "postgres", target)
}
