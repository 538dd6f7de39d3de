package middleware

import (
	"maps"

	"github.com/dmitrymomot/billforge/core/handler"
)

// DefaultSecurityHeaders are applied by SecurityHeaders. Rendered bills embed
// QR codes as data URIs, hence img-src data:.
var DefaultSecurityHeaders = map[string]string{
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"Referrer-Policy":         "strict-origin-when-cross-origin",
	"Content-Security-Policy": "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'",
}

// SecurityHeaders sets DefaultSecurityHeaders on every response.
func SecurityHeaders[C handler.Context]() handler.Middleware[C] {
	return SecurityHeadersWith[C](DefaultSecurityHeaders)
}

// SecurityHeadersWith sets headers on every response. Empty values remove
// the header.
func SecurityHeadersWith[C handler.Context](headers map[string]string) handler.Middleware[C] {
	headers = maps.Clone(headers)

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			h := ctx.ResponseWriter().Header()
			for k, v := range headers {
				if v == "" {
					h.Del(k)
					continue
				}
				h.Set(k, v)
			}
			return next(ctx)
		}
	}
}
