package app

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/billforge/core/bill"
	"github.com/dmitrymomot/billforge/core/health"
	"github.com/dmitrymomot/billforge/core/quota"
	"github.com/dmitrymomot/billforge/core/registry"
	"github.com/dmitrymomot/billforge/internal/templates"
	"github.com/dmitrymomot/billforge/pkg/jwt"
)

// App holds the dependencies of the HTTP API.
type App struct {
	quota     *quota.Service
	bills     bill.Repository
	validator *bill.Validator
	templates *registry.Registry[bill.Bill]
	tokens    *jwt.Service
	failure   quota.FailurePolicy
	logger    *slog.Logger
	gatherer  prometheus.Gatherer
	checks    []health.Check
	maxBody   int64
	now       func() time.Time
}

// Option configures an App.
type Option func(*App) error

// New builds an App. A quota service, a bill repository and a token service
// are required.
func New(opts ...Option) (*App, error) {
	a := &App{
		failure: quota.FailClosed,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	switch {
	case a.quota == nil:
		return nil, errors.New("app: quota service is required")
	case a.bills == nil:
		return nil, errors.New("app: bill repository is required")
	case a.tokens == nil:
		return nil, errors.New("app: token service is required")
	}

	if a.validator == nil {
		v, err := bill.NewValidator()
		if err != nil {
			return nil, err
		}
		a.validator = v
	}
	if a.templates == nil {
		reg := registry.New[bill.Bill]()
		if err := templates.Register(reg); err != nil {
			return nil, err
		}
		a.templates = reg
	}
	if a.gatherer == nil {
		a.gatherer = prometheus.NewRegistry()
	}
	return a, nil
}

func WithQuota(svc *quota.Service) Option {
	return func(a *App) error {
		if svc == nil {
			return errors.New("quota service cannot be nil")
		}
		a.quota = svc
		return nil
	}
}

func WithBills(repo bill.Repository) Option {
	return func(a *App) error {
		if repo == nil {
			return errors.New("bill repository cannot be nil")
		}
		a.bills = repo
		return nil
	}
}

func WithTokens(svc *jwt.Service) Option {
	return func(a *App) error {
		if svc == nil {
			return errors.New("token service cannot be nil")
		}
		a.tokens = svc
		return nil
	}
}

func WithTemplates(reg *registry.Registry[bill.Bill]) Option {
	return func(a *App) error {
		if reg == nil {
			return errors.New("template registry cannot be nil")
		}
		a.templates = reg
		return nil
	}
}

func WithFailurePolicy(p quota.FailurePolicy) Option {
	return func(a *App) error {
		if p != quota.FailClosed && p != quota.FailOpen {
			return errors.New("unknown failure policy")
		}
		a.failure = p
		return nil
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *App) error {
		if l == nil {
			return errors.New("logger cannot be nil")
		}
		a.logger = l
		return nil
	}
}

// WithMetrics exposes g on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(a *App) error {
		a.gatherer = g
		return nil
	}
}

// WithReadinessChecks adds dependency probes to /ready.
func WithReadinessChecks(checks ...health.Check) Option {
	return func(a *App) error {
		a.checks = append(a.checks, checks...)
		return nil
	}
}

// WithMaxBodySize caps request bodies.
func WithMaxBodySize(n int64) Option {
	return func(a *App) error {
		a.maxBody = n
		return nil
	}
}

// WithClock overrides the clock used for bill names and degraded snapshots.
func WithClock(now func() time.Time) Option {
	return func(a *App) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		a.now = now
		return nil
	}
}
