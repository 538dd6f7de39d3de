package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billforge/core/config"
)

type quotaConfig struct {
	AnonymousLimit int           `env:"TEST_QUOTA_ANON" envDefault:"2"`
	Window         time.Duration `env:"TEST_QUOTA_WINDOW" envDefault:"168h"`
}

type requiredConfig struct {
	Secret string `env:"TEST_REQUIRED_SECRET,required"`
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_QUOTA_ANON", "5")
	config.Reset()

	var cfg quotaConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, 5, cfg.AnonymousLimit)
	assert.Equal(t, 7*24*time.Hour, cfg.Window)

	t.Run("cached per type", func(t *testing.T) {
		t.Setenv("TEST_QUOTA_ANON", "9")

		var again quotaConfig
		require.NoError(t, config.Load(&again))
		assert.Equal(t, 5, again.AnonymousLimit)

		config.Reset()
		require.NoError(t, config.Load(&again))
		assert.Equal(t, 9, again.AnonymousLimit)
	})

	t.Run("required missing", func(t *testing.T) {
		var req requiredConfig
		assert.Error(t, config.Load(&req))
		assert.Panics(t, func() { config.MustLoad(&req) })
	})

	t.Run("nil target", func(t *testing.T) {
		assert.ErrorIs(t, config.Load[quotaConfig](nil), config.ErrNilConfig)
	})
}
