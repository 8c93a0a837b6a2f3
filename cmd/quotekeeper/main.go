// Command quotekeeper serves the multi-tenant quote API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/storage"
	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/app/authors"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
	"github.com/jsamuelsen/quotekeeper/internal/platform/telemetry"
	"github.com/jsamuelsen/quotekeeper/internal/ports"
)

// Set with -ldflags "-X main.Version=... -X main.Commit=... -X main.BuildTime=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting quotekeeper",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("storage", cfg.Storage.Driver),
	)

	tel, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
		Insecure:     cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	store, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("opening quote store: %w", err)
	}

	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing quote store failed", slog.Any("error", err))
		}
	}()

	cache := authors.New(
		authors.WithLogger(logger),
		authors.WithRegisterer(prometheus.DefaultRegisterer),
	)

	health := ports.NewHealthRegistry()
	if err := health.Register(store); err != nil {
		return fmt.Errorf("registering store health check: %w", err)
	}

	if err := health.Register(cache); err != nil {
		return fmt.Errorf("registering cache health check: %w", err)
	}

	imageHost, err := newImageHost(cfg, logger, health)
	if err != nil {
		return err
	}

	svc := app.NewQuoteService(app.QuoteServiceConfig{
		Store:       store,
		Cache:       cache,
		ImageHost:   imageHost,
		PrefixLimit: cfg.Cache.PrefixLimit,
		Logger:      logger,
	})

	// The cache must hold every stored author before the first request.
	if err := svc.WarmAuthorCache(ctx); err != nil {
		return fmt.Errorf("warming author cache: %w", err)
	}

	server := http.New(&cfg.Server, logger)
	http.SetupRouter(server.Engine(), http.RouterConfig{
		ServiceName: cfg.App.Name,
		Server:      cfg.Server,
		Auth:        cfg.Auth,
		Health:      handlers.NewHealthHandler(health, handlers.NewBuildInfo(Version, Commit, BuildTime), nil),
		Quotes:      handlers.NewQuoteHandler(svc),
	})

	if err := server.Run(ctx); err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}

// newImageHost returns nil when re-hosting is disabled. The image host is an
// optional readiness check: losing it only degrades image quotes.
func newImageHost(cfg *config.Config, logger *slog.Logger, health ports.HealthRegistry) (ports.ImageHost, error) {
	if !cfg.ImageHost.Enabled {
		return nil, nil
	}

	clientCfg := &clients.Config{
		BaseURL:     cfg.ImageHost.BaseURL,
		ServiceName: cfg.ImageHost.Name,
		HTTP:        cfg.Client,
		Logger:      logger,
	}

	if token := cfg.ImageHost.Token; token != "" {
		clientCfg.AuthFunc = func(req *nethttp.Request) {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	client, err := clients.New(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating image host client: %w", err)
	}

	host := acl.NewImageHostClient(client, logger)
	if err := health.RegisterOptional(host); err != nil {
		return nil, fmt.Errorf("registering image host health check: %w", err)
	}

	return host, nil
}
