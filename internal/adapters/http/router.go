package http

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
	"github.com/jsamuelsen/quotekeeper/internal/platform/telemetry"
)

// RouterConfig carries what SetupRouter mounts.
type RouterConfig struct {
	ServiceName string
	Server      config.ServerConfig
	Auth        config.AuthConfig

	Health *handlers.HealthHandler
	Quotes *handlers.QuoteHandler
}

// SetupRouter installs the middleware chain and routes on engine.
//
// Global chain, outermost first: recovery, request ID, correlation ID,
// tracing and HTTP metrics, request logging. Probe routes live under /-/;
// the API lives under /api/v1/tenants/:tenant with a request timeout.
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(middleware.Recovery(), middleware.RequestID(), middleware.CorrelationID())
	engine.Use(telemetry.Middleware(cfg.ServiceName)...)
	engine.Use(middleware.Logging())

	if cfg.Health != nil {
		cfg.Health.RegisterRoutes(engine)
	}

	if cfg.Quotes == nil {
		return
	}

	tenant := engine.Group("/api/v1/tenants/:"+middleware.TenantParam, middleware.Tenant())
	if cfg.Server.RequestTimeout > 0 {
		tenant.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	}

	cfg.Quotes.RegisterRoutes(tenant, middleware.RequireWriter(cfg.Auth))
}
