package middleware

import (
	"fmt"
	"net/http"

	"github.com/dmitrymomot/billforge/core/handler"
	"github.com/dmitrymomot/billforge/core/response"
)

// Common size constants.
const (
	KB int64 = 1024
	MB       = 1024 * KB
)

// DefaultBodyLimit caps request bodies when no size is given.
const DefaultBodyLimit = 1 * MB

// BodyLimit rejects requests whose declared Content-Length exceeds maxSize
// and caps reads of the body at maxSize. A non-positive maxSize uses
// DefaultBodyLimit.
func BodyLimit[C handler.Context](maxSize int64) handler.Middleware[C] {
	if maxSize <= 0 {
		maxSize = DefaultBodyLimit
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			req := ctx.Request()
			if req.ContentLength > maxSize {
				return response.Error(response.ErrRequestEntityTooLarge.
					WithMessage(fmt.Sprintf("Request body too large. Maximum allowed: %d bytes", maxSize)).
					WithDetails(map[string]any{"limit": maxSize, "size": req.ContentLength}))
			}
			if req.Body != nil && req.Body != http.NoBody {
				req.Body = http.MaxBytesReader(ctx.ResponseWriter(), req.Body, maxSize)
			}
			return next(ctx)
		}
	}
}
