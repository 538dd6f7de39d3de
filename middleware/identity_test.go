package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billforge/core/handler"
	"github.com/dmitrymomot/billforge/core/quota"
	"github.com/dmitrymomot/billforge/core/response"
	"github.com/dmitrymomot/billforge/middleware"
	"github.com/dmitrymomot/billforge/pkg/jwt"
)

const signingKey = "0123456789abcdef0123456789abcdef"

func TestIdentity(t *testing.T) {
	t.Parallel()

	svc, err := jwt.NewFromString(signingKey)
	require.NoError(t, err)
	token, err := svc.Generate(jwt.StandardClaims{Subject: "user-42", TTL: time.Hour})
	require.NoError(t, err)

	var got quota.Identity
	h := func(ctx handler.Context) handler.Response {
		got = middleware.GetIdentity(ctx)
		return response.NoContent()
	}
	mw := middleware.Identity[handler.Context](svc)

	t.Run("anonymous without token", func(t *testing.T) {
		rec := serve(t, h, httptest.NewRequest(http.MethodGet, "/", nil), mw)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, quota.Identity{Class: quota.ClassAnonymous}, got)
	})

	t.Run("authenticated with valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := serve(t, h, req, mw)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, quota.Identity{Class: quota.ClassAuthenticated, Key: "user-42"}, got)
	})

	t.Run("rejected with invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := serve(t, h, req, mw)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":"unauthorized"`)
	})
}

func TestIdentity_NilServicePanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { middleware.IdentityWithConfig[handler.Context](middleware.IdentityConfig{}) })
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	for header, want := range map[string]string{
		"Bearer abc":  "abc",
		"bearer  abc": "abc",
		"Basic abc":   "",
		"":            "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		assert.Equal(t, want, middleware.BearerToken(handler.NewContext(httptest.NewRecorder(), req)), header)
	}
}
