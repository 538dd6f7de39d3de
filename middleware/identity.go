package middleware

import (
	"context"
	"strings"

	"github.com/dmitrymomot/billforge/core/handler"
	"github.com/dmitrymomot/billforge/core/quota"
	"github.com/dmitrymomot/billforge/core/response"
	"github.com/dmitrymomot/billforge/pkg/jwt"
)

type identityContextKey struct{}

// IdentityConfig configures caller identity resolution.
type IdentityConfig struct {
	Skip func(ctx handler.Context) bool
	// Service verifies bearer tokens. Required.
	Service *jwt.Service
	// TokenExtractor defaults to the Authorization bearer token.
	TokenExtractor func(ctx handler.Context) string
	// ErrorHandler renders invalid tokens. Defaults to 401.
	ErrorHandler func(ctx handler.Context, err error) handler.Response
}

// Identity resolves the caller from a bearer token. Requests without a token
// are anonymous; requests with an invalid token are rejected.
func Identity[C handler.Context](svc *jwt.Service) handler.Middleware[C] {
	return IdentityWithConfig[C](IdentityConfig{Service: svc})
}

// IdentityWithConfig panics when cfg.Service is nil.
func IdentityWithConfig[C handler.Context](cfg IdentityConfig) handler.Middleware[C] {
	if cfg.Service == nil {
		panic("identity middleware: jwt service is required")
	}
	if cfg.TokenExtractor == nil {
		cfg.TokenExtractor = BearerToken
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(_ handler.Context, err error) handler.Response {
			return response.Error(response.ErrUnauthorized.
				WithMessage("Invalid or expired access token.").
				WithError(err))
		}
	}

	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			if cfg.Skip != nil && cfg.Skip(ctx) {
				return next(ctx)
			}

			id := quota.Identity{Class: quota.ClassAnonymous}
			if token := cfg.TokenExtractor(ctx); token != "" {
				claims, err := cfg.Service.Parse(token)
				if err != nil {
					return cfg.ErrorHandler(ctx, err)
				}
				id = quota.Identity{Class: quota.ClassAuthenticated, Key: claims.Subject}
			}

			ctx.SetValue(identityContextKey{}, id)
			return next(ctx)
		}
	}
}

// BearerToken returns the token of an "Authorization: Bearer" header.
func BearerToken(ctx handler.Context) string {
	scheme, token, ok := strings.Cut(ctx.Request().Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// GetIdentity returns the resolved caller. Without Identity in the chain
// every caller is anonymous.
func GetIdentity(ctx context.Context) quota.Identity {
	if id, ok := ctx.Value(identityContextKey{}).(quota.Identity); ok {
		return id
	}
	return quota.Identity{Class: quota.ClassAnonymous}
}
