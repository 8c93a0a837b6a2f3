// Package storage opens the quote store selected by configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage/memory"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage/sqlstore"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// Store is a quote store that reports its health and owns resources.
type Store interface {
	ports.QuoteStore
	ports.HealthChecker
	Close() error
}

var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*sqlstore.Store)(nil)
)

// Open returns the store named by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case "memory":
		logger.Warn("using in-memory quote store; quotes are lost on restart")
		return memory.New(), nil

	case sqlstore.DriverSQLite, sqlstore.DriverPostgres:
		store, err := sqlstore.Open(ctx, sqlstore.Options{
			Driver:          cfg.Driver,
			DSN:             cfg.DSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			Logger:          logger,
		})
		if err != nil {
			return nil, err
		}

		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
