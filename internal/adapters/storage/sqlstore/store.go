// Package sqlstore implements ports.QuoteStore on database/sql.
//
// Two dialects are supported: SQLite through modernc.org/sqlite (pure Go,
// the default for single-node deployments) and PostgreSQL through lib/pq.
// Queries are written once with ? placeholders and rebound per dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage/sqlstore/migrations"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// Options configures Open.
type Options struct {
	// Driver is DriverSQLite or DriverPostgres.
	Driver string

	// DSN is a file path for SQLite or a connection string for PostgreSQL.
	DSN string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	Logger *slog.Logger
}

// Store is a SQL-backed quote store.
type Store struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
}

// Open connects, verifies the connection and applies pending migrations.
func Open(ctx context.Context, opts Options) (*Store, error) {
	d, err := dialectFor(opts.Driver)
	if err != nil {
		return nil, err
	}

	dsn, err := d.dsn(opts.DSN)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", d.driver, err)
	}

	configurePool(db, d, opts)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", d.driver, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("component", "sqlstore"), slog.String("driver", d.driver))

	if err := applyMigrations(ctx, db, d, migrations.FS, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{
		db:      db,
		dialect: d,
		logger:  logger,
	}

	s.logger.Info("quote store opened")

	return s, nil
}

func configurePool(db *sql.DB, d dialect, opts Options) {
	// SQLite serializes writers anyway; one connection also keeps an
	// in-memory database alive and shared.
	if d.driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		return
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}

	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}

	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return "quote-store"
}

// Check implements ports.HealthChecker.
func (s *Store) Check(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return domain.NewUnavailableError(s.Name(), err.Error())
	}

	return nil
}

const selectColumns = `SELECT tenant_id, id, type, body, author, name FROM quotes`

// Insert implements ports.QuoteStore.
func (s *Store) Insert(ctx context.Context, q *domain.Quote) error {
	_, err := s.db.ExecContext(ctx,
		s.dialect.rebind(`INSERT INTO quotes (tenant_id, id, type, body, author, name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		q.TenantID,
		q.ID,
		int(q.Type),
		q.Body,
		q.Author,
		q.Name,
		time.Now().UTC().UnixMilli(),
	)
	if err == nil {
		return nil
	}

	switch s.dialect.classify(err) {
	case violationName:
		return domain.NewDuplicateNameError(q.TenantID, q.Name)
	case violationID:
		return fmt.Errorf("insert quote %s/%s: %w", q.TenantID, q.ID, domain.ErrConflict)
	default:
		return fmt.Errorf("insert quote: %w", err)
	}
}

// Delete implements ports.QuoteStore.
func (s *Store) Delete(ctx context.Context, tenantID, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		s.dialect.rebind(`DELETE FROM quotes WHERE tenant_id = ? AND id = ?`), tenantID, id)
	if err != nil {
		return 0, fmt.Errorf("delete quote: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete quote rows affected: %w", err)
	}

	return n, nil
}

// FindByID implements ports.QuoteStore.
func (s *Store) FindByID(ctx context.Context, tenantID, id string) (*domain.Quote, error) {
	return s.queryOne(ctx, "find quote by id",
		selectColumns+` WHERE tenant_id = ? AND id = ?`, tenantID, id)
}

// FindByName implements ports.QuoteStore.
func (s *Store) FindByName(ctx context.Context, tenantID, name string) (*domain.Quote, error) {
	return s.queryOne(ctx, "find quote by name",
		selectColumns+` WHERE tenant_id = ? AND name = ?`, tenantID, name)
}

// FindAllByTenant implements ports.QuoteStore.
func (s *Store) FindAllByTenant(ctx context.Context, tenantID string) ([]domain.Quote, error) {
	return s.queryMany(ctx, "find quotes by tenant",
		selectColumns+` WHERE tenant_id = ?`, tenantID)
}

// FindByAuthor implements ports.QuoteStore.
func (s *Store) FindByAuthor(ctx context.Context, tenantID, author string) ([]domain.Quote, error) {
	return s.queryMany(ctx, "find quotes by author",
		selectColumns+` WHERE tenant_id = ? AND author = ?`, tenantID, author)
}

// FindByType implements ports.QuoteStore.
func (s *Store) FindByType(ctx context.Context, tenantID string, quoteType domain.QuoteType) ([]domain.Quote, error) {
	order := ` ORDER BY id`
	if s.dialect.driver == DriverPostgres {
		order = ` ORDER BY id COLLATE "C"`
	}

	return s.queryMany(ctx, "find quotes by type",
		selectColumns+` WHERE tenant_id = ? AND type = ?`+order, tenantID, int(quoteType))
}

// ExistsByID implements ports.QuoteStore.
func (s *Store) ExistsByID(ctx context.Context, tenantID, id string) (bool, error) {
	var found int

	err := s.db.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT 1 FROM quotes WHERE tenant_id = ? AND id = ?`), tenantID, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("check quote id: %w", err)
	}

	return true, nil
}

// AllQuotes implements ports.QuoteStore.
func (s *Store) AllQuotes(ctx context.Context) ([]domain.Quote, error) {
	return s.queryMany(ctx, "load all quotes", selectColumns)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuote(row scanner) (domain.Quote, error) {
	var (
		q         domain.Quote
		quoteType int
	)

	if err := row.Scan(&q.TenantID, &q.ID, &quoteType, &q.Body, &q.Author, &q.Name); err != nil {
		return domain.Quote{}, err
	}

	q.Type = domain.QuoteType(quoteType)

	return q, nil
}

func (s *Store) queryOne(ctx context.Context, op, query string, args ...any) (*domain.Quote, error) {
	q, err := scanQuote(s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // absence is not an error for lookups
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &q, nil
}

func (s *Store) queryMany(ctx context.Context, op, query string, args ...any) ([]domain.Quote, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	quotes := make([]domain.Quote, 0)

	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}

		quotes = append(quotes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return quotes, nil
}
