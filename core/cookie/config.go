package cookie

import (
	"net/http"
	"strings"
)

// Config holds cookie settings loaded from the environment.
// Secrets is a comma-separated list; the first entry signs new cookies.
type Config struct {
	Secrets  string `env:"COOKIE_SECRETS,required"`
	Domain   string `env:"COOKIE_DOMAIN" envDefault:""`
	Secure   bool   `env:"COOKIE_SECURE" envDefault:"true"`
	SameSite string `env:"COOKIE_SAME_SITE" envDefault:"strict"`
}

// NewFromConfig builds a manager from cfg. Later options override cfg.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	var secrets []string
	for _, s := range strings.Split(cfg.Secrets, ",") {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}

	configOpts := []Option{
		WithSecure(cfg.Secure),
		WithSameSite(ParseSameSite(cfg.SameSite)),
	}
	if cfg.Domain != "" {
		configOpts = append(configOpts, WithDomain(cfg.Domain))
	}

	return New(secrets, append(configOpts, opts...)...)
}

// ParseSameSite maps "strict", "lax" and "none" to http.SameSite.
// Unknown values fall back to Lax.
func ParseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
