package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/billforge/core/handler"
	"github.com/dmitrymomot/billforge/core/logger"
)

// statusCode is implemented by errors that carry their own HTTP status.
type statusCode interface {
	StatusCode() int
}

// convertToHTTPError maps any error to an HTTPError. Causes of server-side
// errors are kept out of the response body.
func convertToHTTPError(err error) HTTPError {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	status := http.StatusInternalServerError
	var sc statusCode
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}

	base, ok := httpErrorsByStatus[status]
	if !ok {
		base = ErrInternalServerError
	}
	if base.Status >= http.StatusInternalServerError {
		return base
	}
	return base.WithError(err)
}

// ErrorHandler renders errors as plain text.
func ErrorHandler[C handler.Context](ctx C, err error) {
	httpErr := convertToHTTPError(err)
	Render(ctx, StringWithStatus(httpErr.Error(), httpErr.Status))
}

// JSONErrorHandler renders errors as JSON HTTPError bodies.
func JSONErrorHandler[C handler.Context](ctx C, err error) {
	httpErr := convertToHTTPError(err)
	Render(ctx, JSONWithStatus(httpErr, httpErr.Status))
}

// JSONErrorHandlerWithLogger is JSONErrorHandler that also logs server-side errors.
func JSONErrorHandlerWithLogger[C handler.Context](log *slog.Logger) handler.ErrorHandler[C] {
	return func(ctx C, err error) {
		httpErr := convertToHTTPError(err)
		if httpErr.Status >= http.StatusInternalServerError {
			attrs := []any{
				logger.Error(err),
				logger.StatusCode(httpErr.Status),
				logger.Method(ctx.Request().Method),
				logger.Path(ctx.Request().URL.Path),
			}
			var pe *handler.PanicError
			if errors.As(err, &pe) {
				attrs = append(attrs, slog.String("stack", string(pe.Stack)))
			}
			log.ErrorContext(ctx, "request failed", attrs...)
		}
		Render(ctx, JSONWithStatus(httpErr, httpErr.Status))
	}
}
