package cookie

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	corecookie "github.com/dmitrymomot/billforge/core/cookie"
	"github.com/dmitrymomot/billforge/core/quota"
)

const (
	// DefaultName is the cookie that carries the anonymous ledger.
	DefaultName = "bill_generator_anonymous_usage"

	// DefaultMaxAge keeps the cookie for one accounting window.
	DefaultMaxAge = 7 * 24 * time.Hour
)

var ErrNoExchange = errors.New("cookie ledger: no http exchange bound to context")

// payload is the JSON stored in the cookie.
type payload struct {
	Count     *int       `json:"weeklyBillsGenerated"`
	ResetDate *time.Time `json:"lastResetDate"`
}

// Store implements quota.LedgerStore on top of a signed cookie.
type Store struct {
	manager *corecookie.Manager
	name    string
	maxAge  time.Duration
	secure  bool
}

// Option configures a Store.
type Option func(*Store)

// WithName overrides the cookie name.
func WithName(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.name = name
		}
	}
}

// WithMaxAge overrides the cookie lifetime.
func WithMaxAge(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.maxAge = d
		}
	}
}

// WithSecure sets the Secure attribute. Enabled by default.
func WithSecure(secure bool) Option {
	return func(s *Store) { s.secure = secure }
}

// New creates a cookie-backed ledger store.
func New(manager *corecookie.Manager, opts ...Option) *Store {
	s := &Store{
		manager: manager,
		name:    DefaultName,
		maxAge:  DefaultMaxAge,
		secure:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type exchange struct {
	w http.ResponseWriter
	r *http.Request

	mu      sync.Mutex
	written *quota.Entry
}

type exchangeKey struct{}

// WithExchange binds the response writer and request of the current
// exchange to ctx.
func WithExchange(ctx context.Context, w http.ResponseWriter, r *http.Request) context.Context {
	return context.WithValue(ctx, exchangeKey{}, &exchange{w: w, r: r})
}

// Binder is implemented by request contexts that can carry values, such as
// handler.Context.
type Binder interface {
	ResponseWriter() http.ResponseWriter
	Request() *http.Request
	SetValue(key, val any)
}

// Bind attaches the exchange of c to c itself.
func Bind(c Binder) {
	c.SetValue(exchangeKey{}, &exchange{w: c.ResponseWriter(), r: c.Request()})
}

func exchangeFrom(ctx context.Context) (*exchange, error) {
	ex, ok := ctx.Value(exchangeKey{}).(*exchange)
	if !ok || ex.w == nil || ex.r == nil {
		return nil, ErrNoExchange
	}
	return ex, nil
}

// Load reads the ledger from the request cookie. A value saved earlier in
// the same exchange takes precedence. The key is ignored.
func (s *Store) Load(ctx context.Context, _ string) (quota.Entry, error) {
	ex, err := exchangeFrom(ctx)
	if err != nil {
		return quota.Entry{}, err
	}

	ex.mu.Lock()
	defer ex.mu.Unlock()
	if ex.written != nil {
		return *ex.written, nil
	}

	var p payload
	if err := s.manager.GetJSON(ex.r, s.name, &p); err != nil {
		switch {
		case errors.Is(err, corecookie.ErrCookieNotFound):
			return quota.Entry{}, quota.ErrEntryNotFound
		case errors.Is(err, corecookie.ErrInvalidFormat), errors.Is(err, corecookie.ErrInvalidSignature):
			return quota.Entry{}, errors.Join(quota.ErrMalformedEntry, err)
		default:
			return quota.Entry{}, err
		}
	}

	if p.Count == nil || p.ResetDate == nil || *p.Count < 0 || p.ResetDate.IsZero() {
		return quota.Entry{}, quota.ErrMalformedEntry
	}
	return quota.Entry{Count: *p.Count, WindowStart: p.ResetDate.UTC()}, nil
}

// Save writes the ledger as a Set-Cookie header on the bound response.
func (s *Store) Save(ctx context.Context, _ string, e quota.Entry) error {
	ex, err := exchangeFrom(ctx)
	if err != nil {
		return err
	}

	ex.mu.Lock()
	defer ex.mu.Unlock()

	start := e.WindowStart.UTC()
	p := payload{Count: &e.Count, ResetDate: &start}
	if err := s.manager.SetJSON(ex.w, s.name, p,
		corecookie.WithMaxAge(int(s.maxAge/time.Second)),
		corecookie.WithHTTPOnly(true),
		corecookie.WithSameSite(http.SameSiteStrictMode),
		corecookie.WithSecure(s.secure),
		corecookie.WithPath("/"),
	); err != nil {
		return err
	}

	saved := e
	ex.written = &saved
	return nil
}
