package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	drvmongo "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/billforge/core/bill"
	"github.com/dmitrymomot/billforge/core/cookie"
	"github.com/dmitrymomot/billforge/core/health"
	"github.com/dmitrymomot/billforge/core/logger"
	"github.com/dmitrymomot/billforge/core/quota"
	"github.com/dmitrymomot/billforge/core/registry"
	billmongo "github.com/dmitrymomot/billforge/integration/billstore/mongo"
	"github.com/dmitrymomot/billforge/integration/database/mongo"
	"github.com/dmitrymomot/billforge/integration/database/pg"
	"github.com/dmitrymomot/billforge/integration/database/redis"
	cookieledger "github.com/dmitrymomot/billforge/integration/ledger/cookie"
	mongoledger "github.com/dmitrymomot/billforge/integration/ledger/mongo"
	pgledger "github.com/dmitrymomot/billforge/integration/ledger/postgres"
	redisledger "github.com/dmitrymomot/billforge/integration/ledger/redis"
	"github.com/dmitrymomot/billforge/internal/templates"
	"github.com/dmitrymomot/billforge/middleware"
	"github.com/dmitrymomot/billforge/pkg/jwt"
)

var ErrUnknownBackend = errors.New("app: unknown backend")

// NewLogger builds the process logger for cfg.
func NewLogger(cfg Config) *slog.Logger {
	opts := []logger.Option{logger.WithContextExtractors(middleware.RequestIDExtractor())}
	switch cfg.Env {
	case "production":
		opts = append(opts, logger.WithProduction(cfg.AppName))
	case "staging":
		opts = append(opts, logger.WithStaging(cfg.AppName))
	default:
		opts = append(opts, logger.WithDevelopment(cfg.AppName))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err == nil {
		opts = append(opts, logger.WithLevel(level))
	}
	return logger.New(opts...)
}

// Runtime is a wired App together with the connections it owns.
type Runtime struct {
	App *App

	closers []func(context.Context) error
}

// Close releases connections in reverse order of creation.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for _, c := range slices.Backward(rt.closers) {
		if err := c(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}

// Bootstrap connects the configured backends and builds the App.
func Bootstrap(ctx context.Context, cfg Config, log *slog.Logger) (_ *Runtime, err error) {
	cfg.LedgerBackend = strings.ToLower(strings.TrimSpace(cfg.LedgerBackend))
	cfg.BillStore = strings.ToLower(strings.TrimSpace(cfg.BillStore))

	rt := &Runtime{}
	defer func() {
		if err != nil {
			_ = rt.Close(context.Background())
		}
	}()

	var checks []health.Check

	var mongoDB *drvmongo.Database
	if cfg.LedgerBackend == BackendMongo || cfg.BillStore == BackendMongo {
		client, err := mongo.New(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, client.Disconnect)
		checks = append(checks, health.Check{Name: "mongo", Fn: mongo.Healthcheck(client)})
		mongoDB = client.Database(cfg.Mongo.Database)
	}

	authStore, authChecks, err := rt.ledgerStore(ctx, cfg, mongoDB)
	if err != nil {
		return nil, err
	}
	checks = append(checks, authChecks...)

	bills, err := billRepository(ctx, cfg, mongoDB)
	if err != nil {
		return nil, err
	}

	cookies, err := cookie.NewFromConfig(cfg.Cookie)
	if err != nil {
		return nil, fmt.Errorf("app: cookie manager: %w", err)
	}
	anonStore := cookieledger.New(cookies,
		cookieledger.WithSecure(cfg.Cookie.Secure && !cfg.IsDevelopment()),
		cookieledger.WithMaxAge(cfg.Quota.CookieMaxAge),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc, err := quota.NewService(
		quota.WithLedger(quota.ClassAnonymous, anonStore, quota.Policy{
			Limit:        cfg.Quota.AnonymousLimit,
			WindowLength: cfg.Quota.Window,
		}),
		quota.WithLedger(quota.ClassAuthenticated, authStore, quota.Policy{
			Limit:        cfg.Quota.AuthenticatedLimit,
			WindowLength: cfg.Quota.Window,
		}),
		quota.WithMaxRetries(cfg.Quota.MaxRetries),
		quota.WithLogger(log),
		quota.WithRecorder(quota.NewPrometheusRecorder(reg)),
	)
	if err != nil {
		return nil, err
	}

	failure, err := quota.ParseFailurePolicy(cfg.Quota.FailurePolicy)
	if err != nil {
		return nil, err
	}

	var jwtOpts []jwt.Option
	if cfg.JWTIssuer != "" {
		jwtOpts = append(jwtOpts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	tokens, err := jwt.NewFromString(cfg.JWTSigningKey, jwtOpts...)
	if err != nil {
		return nil, err
	}

	tpls := registry.New[bill.Bill]()
	if err := templates.Register(tpls, templates.WithQRSize(cfg.QRCodeSize)); err != nil {
		return nil, err
	}

	a, err := New(
		WithQuota(svc),
		WithBills(bills),
		WithTokens(tokens),
		WithTemplates(tpls),
		WithFailurePolicy(failure),
		WithLogger(log),
		WithMetrics(reg),
		WithReadinessChecks(checks...),
		WithMaxBodySize(cfg.MaxBodySize),
	)
	if err != nil {
		return nil, err
	}

	log.InfoContext(ctx, "application wired",
		logger.Component("app"),
		slog.String("ledger_backend", cfg.LedgerBackend),
		slog.String("bill_store", cfg.BillStore),
		slog.String("failure_policy", string(failure)),
	)

	rt.App = a
	return rt, nil
}

func (rt *Runtime) ledgerStore(ctx context.Context, cfg Config, db *drvmongo.Database) (quota.LedgerStore, []health.Check, error) {
	switch cfg.LedgerBackend {
	case BackendMemory, "":
		return quota.NewMemoryStore(), nil, nil

	case BackendMongo:
		return mongoledger.New(db, cfg.UsersCollection), nil, nil

	case BackendRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		rt.closers = append(rt.closers, func(context.Context) error { return client.Close() })
		return redisledger.New(client, redisledger.WithTTL(cfg.Quota.Window)),
			[]health.Check{{Name: "redis", Fn: redis.Healthcheck(client)}}, nil

	case BackendPostgres:
		pool, err := pg.Connect(ctx, cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		rt.closers = append(rt.closers, func(context.Context) error { pool.Close(); return nil })
		return pgledger.New(pool), []health.Check{{Name: "postgres", Fn: pg.Healthcheck(pool)}}, nil
	}
	return nil, nil, fmt.Errorf("%w: LEDGER_BACKEND=%q", ErrUnknownBackend, cfg.LedgerBackend)
}

func billRepository(ctx context.Context, cfg Config, db *drvmongo.Database) (bill.Repository, error) {
	switch cfg.BillStore {
	case BackendMemory, "":
		return bill.NewMemoryRepository(nil), nil
	case BackendMongo:
		repo := billmongo.New(db, "")
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	}
	return nil, fmt.Errorf("%w: BILL_STORE=%q", ErrUnknownBackend, cfg.BillStore)
}

// Migrate applies the relational ledger schema.
func Migrate(ctx context.Context, cfg Config, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, cfg.DB, pgledger.Migrations()); err != nil {
		return err
	}
	log.InfoContext(ctx, "migrations applied", logger.Component("migrate"))
	return nil
}
