package app

import (
	"time"

	"github.com/dmitrymomot/billforge/core/cookie"
	"github.com/dmitrymomot/billforge/core/server"
	"github.com/dmitrymomot/billforge/integration/database/mongo"
	"github.com/dmitrymomot/billforge/integration/database/pg"
	"github.com/dmitrymomot/billforge/integration/database/redis"
)

// Ledger backends for authenticated credits.
const (
	BackendMemory   = "memory"
	BackendMongo    = "mongo"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config is the full process configuration, loaded from the environment.
type Config struct {
	Server server.Config
	Cookie cookie.Config
	Mongo  mongo.Config
	Redis  redis.Config
	DB     pg.Config
	Quota  QuotaConfig

	AppName  string `env:"APP_NAME" envDefault:"billforge"`
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSigningKey string `env:"JWT_SIGNING_KEY,required"`
	JWTIssuer     string `env:"JWT_ISSUER" envDefault:""`

	LedgerBackend   string `env:"LEDGER_BACKEND" envDefault:"memory"`
	BillStore       string `env:"BILL_STORE" envDefault:"memory"`
	UsersCollection string `env:"USERS_COLLECTION" envDefault:"users"`

	MaxBodySize int64 `env:"MAX_BODY_SIZE" envDefault:"1048576"`
	QRCodeSize  int   `env:"QRCODE_SIZE" envDefault:"128"`
}

// QuotaConfig holds the weekly credit policy.
type QuotaConfig struct {
	AnonymousLimit     int           `env:"QUOTA_ANONYMOUS_LIMIT" envDefault:"2"`
	AuthenticatedLimit int           `env:"QUOTA_AUTHENTICATED_LIMIT" envDefault:"10"`
	Window             time.Duration `env:"QUOTA_WINDOW" envDefault:"168h"`
	MaxRetries         int           `env:"QUOTA_MAX_RETRIES" envDefault:"5"`
	FailurePolicy      string        `env:"QUOTA_FAILURE_POLICY" envDefault:"closed"`

	// CookieMaxAge is the fixed lifetime of the anonymous usage cookie.
	// It does not follow Window.
	CookieMaxAge time.Duration `env:"QUOTA_COOKIE_MAX_AGE" envDefault:"168h"`
}

// IsDevelopment reports whether the process runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}
