package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
)

// abort ends the chain with the standard error envelope. If the handler has
// already written a response, the chain is only aborted.
func abort(c *gin.Context, status int, code, message string) {
	if c.Writer.Written() {
		c.Abort()
		return
	}

	resp := dto.NewErrorResponse(code, message).WithTraceID(traceID(c))
	c.AbortWithStatusJSON(status, resp)
}

func traceID(c *gin.Context) string {
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return ""
}
