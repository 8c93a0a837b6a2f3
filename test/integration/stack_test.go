//go:build integration

package integration

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients/acl"
	httpadapter "github.com/jsamuelsen/quotekeeper/internal/adapters/http"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage"
	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/app/authors"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// stack is the whole service wired as in main, on a SQLite file under dir
// and served by httptest.
type stack struct {
	URL    string
	server *httptest.Server
	store  storage.Store
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func clientConfig() config.ClientConfig {
	return config.ClientConfig{
		Timeout: 5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     2,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      2,
		},
		CircuitBreaker: config.CircuitBreakerConfig{
			MaxFailures:   3,
			Timeout:       time.Second,
			HalfOpenLimit: 1,
		},
		Transport: config.TransportConfig{
			MaxIdleConns:        16,
			MaxIdleConnsPerHost: 8,
			IdleConnTimeout:     30 * time.Second,
		},
	}
}

// startStack opens the store in dir and starts serving. imageHostURL may be
// empty to disable re-hosting.
func startStack(ctx context.Context, dir, imageHostURL string) (*stack, error) {
	logger := discard()

	store, err := storage.Open(ctx, config.StorageConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(dir, "quotes.db"),
	}, logger)
	if err != nil {
		return nil, err
	}

	cache := authors.New(authors.WithLogger(logger))

	health := ports.NewHealthRegistry()
	_ = health.Register(store)
	_ = health.Register(cache)

	var imageHost ports.ImageHost

	if imageHostURL != "" {
		client, err := clients.New(&clients.Config{
			BaseURL:     imageHostURL,
			ServiceName: "image-host",
			HTTP:        clientConfig(),
			Logger:      logger,
		})
		if err != nil {
			_ = store.Close()
			return nil, err
		}

		host := acl.NewImageHostClient(client, logger)
		_ = health.RegisterOptional(host)
		imageHost = host
	}

	svc := app.NewQuoteService(app.QuoteServiceConfig{
		Store:     store,
		Cache:     cache,
		ImageHost: imageHost,
		Logger:    logger,
	})

	if err := svc.WarmAuthorCache(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	gin.SetMode(gin.TestMode)

	engine := gin.New()
	httpadapter.SetupRouter(engine, httpadapter.RouterConfig{
		ServiceName: "quotekeeper-integration",
		Server:      config.ServerConfig{RequestTimeout: 5 * time.Second},
		Health:      handlers.NewHealthHandler(health, handlers.NewBuildInfo("test", "none", ""), nil),
		Quotes:      handlers.NewQuoteHandler(svc),
	})

	server := httptest.NewServer(engine)

	return &stack{URL: server.URL, server: server, store: store}, nil
}

func (s *stack) Close() error {
	s.server.Close()
	return s.store.Close()
}
