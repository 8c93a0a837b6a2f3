// Package middleware provides the gin middleware chain for the HTTP API.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

const (
	// HeaderRequestID identifies a single request.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID tracks one business transaction across services.
	HeaderCorrelationID = "X-Correlation-ID"

	ginKeyRequestID     = "request_id"
	ginKeyCorrelationID = "correlation_id"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyCorrelationID
)

type idBinding struct {
	header string
	ginKey string
	ctxKey ctxKey
	enrich func(context.Context, string) context.Context
}

// RequestID takes X-Request-ID from the request or generates a UUID, echoes
// it in the response and stores it on the gin and request contexts.
func RequestID() gin.HandlerFunc {
	return propagateID(idBinding{
		header: HeaderRequestID,
		ginKey: ginKeyRequestID,
		ctxKey: ctxKeyRequestID,
		enrich: logging.WithRequestID,
	})
}

// CorrelationID is RequestID for X-Correlation-ID.
func CorrelationID() gin.HandlerFunc {
	return propagateID(idBinding{
		header: HeaderCorrelationID,
		ginKey: ginKeyCorrelationID,
		ctxKey: ctxKeyCorrelationID,
		enrich: logging.WithCorrelationID,
	})
}

func propagateID(b idBinding) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(b.header)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(b.ginKey, id)
		c.Header(b.header, id)

		ctx := context.WithValue(c.Request.Context(), b.ctxKey, id)
		c.Request = c.Request.WithContext(b.enrich(ctx, id))

		c.Next()
	}
}

// GetRequestID returns the request ID stored by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(ginKeyRequestID)
}

// GetCorrelationID returns the correlation ID stored by CorrelationID, or "".
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(ginKeyCorrelationID)
}

// RequestIDFromContext returns the request ID for propagation to downstream
// calls.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// CorrelationIDFromContext returns the correlation ID carried by ctx.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyCorrelationID).(string)
	return id
}

// ContextWithRequestID stores a request ID outside of the gin chain, for
// background work that calls downstream services.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// ContextWithCorrelationID is ContextWithRequestID for correlation IDs.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyCorrelationID, id)
}
