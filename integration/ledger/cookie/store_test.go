package cookie_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corecookie "github.com/dmitrymomot/billforge/core/cookie"
	"github.com/dmitrymomot/billforge/core/quota"
	"github.com/dmitrymomot/billforge/integration/ledger/cookie"
)

const secret = "0123456789abcdef0123456789abcdef"

func newStore(t *testing.T, opts ...cookie.Option) *cookie.Store {
	t.Helper()
	m, err := corecookie.New([]string{secret})
	require.NoError(t, err)
	return cookie.New(m, opts...)
}

// carry copies cookies set on rec into a fresh request.
func carry(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/bills", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestStore_NoExchange(t *testing.T) {
	t.Parallel()
	s := newStore(t)

	_, err := s.Load(context.Background(), "")
	assert.ErrorIs(t, err, cookie.ErrNoExchange)
	assert.ErrorIs(t, s.Save(context.Background(), "", quota.Entry{}), cookie.ErrNoExchange)
}

func TestStore_MissingCookie(t *testing.T) {
	t.Parallel()
	s := newStore(t)

	ctx := cookie.WithExchange(context.Background(), httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := s.Load(ctx, "")
	assert.ErrorIs(t, err, quota.ErrEntryNotFound)
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newStore(t)
	start := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)

	rec := httptest.NewRecorder()
	ctx := cookie.WithExchange(context.Background(), rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, s.Save(ctx, "", quota.Entry{Count: 1, WindowStart: start}))

	// Same exchange sees its own write.
	got, err := s.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, cookie.DefaultName, c.Name)
	assert.Equal(t, 7*24*3600, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)

	next := cookie.WithExchange(context.Background(), httptest.NewRecorder(), carry(rec))
	got, err = s.Load(next, "")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
	assert.True(t, got.WindowStart.Equal(start))
}

func TestStore_TamperedCookie(t *testing.T) {
	t.Parallel()
	s := newStore(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookie.DefaultName, Value: "eyJ3ZWVrbHlCaWxsc0dlbmVyYXRlZCI6MH0=|forged"})
	ctx := cookie.WithExchange(context.Background(), httptest.NewRecorder(), req)

	_, err := s.Load(ctx, "")
	assert.ErrorIs(t, err, quota.ErrMalformedEntry)
}

func TestStore_IncompletePayload(t *testing.T) {
	t.Parallel()
	m, err := corecookie.New([]string{secret})
	require.NoError(t, err)
	s := cookie.New(m)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookie.DefaultName, Value: m.Sign(`{"weeklyBillsGenerated":1}`)})
	ctx := cookie.WithExchange(context.Background(), httptest.NewRecorder(), req)

	_, err = s.Load(ctx, "")
	assert.ErrorIs(t, err, quota.ErrMalformedEntry)
}

func TestStore_WithQuotaService(t *testing.T) {
	t.Parallel()
	s := newStore(t, cookie.WithSecure(false))
	now := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)

	svc, err := quota.NewService(
		quota.WithLedger(quota.ClassAnonymous, s, quota.Policy{Limit: 2, WindowLength: quota.DefaultWindowLength}),
		quota.WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)

	id := quota.Identity{Class: quota.ClassAnonymous}
	req := httptest.NewRequest(http.MethodPost, "/api/bills", nil)
	allowed := 0
	for range 3 {
		rec := httptest.NewRecorder()
		d, err := svc.TryConsume(cookie.WithExchange(context.Background(), rec, req), id)
		require.NoError(t, err)
		if d.Allowed {
			allowed++
		}
		if len(rec.Result().Cookies()) > 0 {
			req = carry(rec)
		}
	}
	assert.Equal(t, 2, allowed)

	// A week later the window resets.
	now = now.Add(quota.DefaultWindowLength)
	d, err := svc.TryConsume(cookie.WithExchange(context.Background(), httptest.NewRecorder(), req), id)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Usage.Count)
}
