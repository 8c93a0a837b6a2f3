package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const migrationTable = "schema_migrations"

// applyMigrations brings the schema up to the newest embedded version. A
// dirty version, left by a migration that failed halfway, is reported
// rather than forced.
func applyMigrations(ctx context.Context, db *sql.DB, d dialect, migrationFS fs.FS, logger *slog.Logger) error {
	source, err := iofs.New(migrationFS, d.migrationRoot)
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}
	defer func() { _ = source.Close() }()

	target, release, err := d.migrationTarget(ctx, db)
	if err != nil {
		return fmt.Errorf("open migration target: %w", err)
	}
	defer release()

	// m.Close would also close db, which the store keeps using.
	m, err := migrate.NewWithInstance("iofs", source, d.driver, target)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}

	if dirty {
		return fmt.Errorf("schema version %d is dirty, repair it and force the version", version)
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Debug("schema up to date", slog.Uint64("version", uint64(version)))
		return nil
	}

	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	if version, _, err = m.Version(); err == nil {
		logger.Info("schema migrated", slog.Uint64("version", uint64(version)))
	}

	return nil
}

// sqliteMigrationTarget shares db; the sqlite driver holds no connection of
// its own.
func sqliteMigrationTarget(_ context.Context, db *sql.DB) (database.Driver, func(), error) {
	drv, err := sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: migrationTable})
	if err != nil {
		return nil, nil, err
	}

	return drv, func() {}, nil
}

// postgresMigrationTarget pins one pooled connection for the advisory lock
// and hands it back to the pool on release.
func postgresMigrationTarget(ctx context.Context, db *sql.DB) (database.Driver, func(), error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, nil, err
	}

	drv, err := postgres.WithConnection(ctx, conn, &postgres.Config{MigrationsTable: migrationTable})
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	return drv, func() { _ = conn.Close() }, nil
}
