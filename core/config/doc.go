// Package config loads environment variables into typed structs.
//
// The first call loads .env from the working directory if present, then
// parses the environment with caarlos0/env. Each struct type is parsed once
// and cached; later calls for the same type copy the cached value.
//
//	type Config struct {
//		Addr  string        `env:"SERVER_ADDR" envDefault:":8080"`
//		Limit int           `env:"QUOTA_ANONYMOUS_LIMIT" envDefault:"2"`
//		TTL   time.Duration `env:"QUOTA_WINDOW" envDefault:"168h"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
package config
