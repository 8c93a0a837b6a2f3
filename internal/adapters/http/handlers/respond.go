package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

// MapError maps an error from the service or from request binding to a
// status and envelope. Unknown errors get a generic 500 message.
func MapError(err error) (int, *dto.ErrorResponse) {
	switch {
	case errors.Is(err, dto.ErrValidation):
		return http.StatusBadRequest, dto.NewErrorResponseWithDetails(
			dto.ErrorCodeValidation, "request validation failed", dto.ValidationErrors(err))

	case tooLarge(err):
		return http.StatusRequestEntityTooLarge, dto.NewErrorResponse(dto.ErrorCodeTooLarge, "request body too large")

	case errors.Is(err, dto.ErrBinding), errors.Is(err, dto.ErrInvalidCursor):
		return http.StatusBadRequest, dto.NewErrorResponse(dto.ErrorCodeBadRequest, err.Error())

	case domain.IsDuplicateName(err):
		return http.StatusConflict, dto.NewErrorResponse(dto.ErrorCodeDuplicateName, err.Error())

	case domain.IsConflict(err):
		return http.StatusConflict, dto.NewErrorResponse(dto.ErrorCodeConflict, err.Error())

	case domain.IsNoQuotesFound(err):
		return http.StatusNotFound, dto.NewErrorResponse(dto.ErrorCodeNoQuotesFound, err.Error())

	case domain.IsNotFound(err):
		return http.StatusNotFound, dto.NewErrorResponse(dto.ErrorCodeNotFound, err.Error())

	case domain.IsValidation(err):
		resp := dto.NewErrorResponse(dto.ErrorCodeValidation, err.Error())

		var verr *domain.ValidationError
		if errors.As(err, &verr) && verr.Field != "" {
			resp.Error.Details = map[string]string{verr.Field: verr.Message}
		}

		return http.StatusBadRequest, resp

	case domain.IsUnavailable(err):
		return http.StatusServiceUnavailable, dto.NewErrorResponse(dto.ErrorCodeUnavailable, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, dto.NewErrorResponse(dto.ErrorCodeTimeout, "request timeout exceeded")

	default:
		return http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrorCodeInternal, "an internal error occurred")
	}
}

// RespondWithError writes the mapped error. Server-side failures are logged
// with the operation step that failed.
func RespondWithError(c *gin.Context, err error) {
	status, resp := MapError(err)
	resp.TraceID = traceID(c)

	if status >= http.StatusInternalServerError {
		attrs := []any{slog.Int("status", status), slog.Any("error", err)}
		if step, ok := app.StepOf(err); ok {
			attrs = append(attrs, slog.String("step", string(step)))
		}

		logging.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "request failed", attrs...)
	}

	c.JSON(status, resp)
}

// RespondWithErrorCode writes an adapter-level error such as a missing
// query parameter.
func RespondWithErrorCode(c *gin.Context, code, message string) {
	c.JSON(dto.HTTPStatusFromCode(code), dto.NewErrorResponse(code, message).WithTraceID(traceID(c)))
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func traceID(c *gin.Context) string {
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	return ""
}
