//go:build integration

package redis_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billforge/core/quota"
	redisdb "github.com/dmitrymomot/billforge/integration/database/redis"
	"github.com/dmitrymomot/billforge/integration/ledger/redis"
)

func setup(t *testing.T) *redis.Store {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	client, err := redisdb.Connect(context.Background(), redisdb.Config{
		ConnectionURL:  url,
		RetryAttempts:  1,
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return redis.New(client, redis.WithPrefix("billforge:test:"+uuid.NewString()+":"), redis.WithTTL(time.Hour))
}

func TestStore_LoadSave(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	_, err := s.Load(ctx, "u1")
	assert.ErrorIs(t, err, quota.ErrEntryNotFound)

	start := time.Date(2025, 3, 3, 12, 0, 0, 123_000_000, time.UTC)
	require.NoError(t, s.Save(ctx, "u1", quota.Entry{Count: 4, WindowStart: start}))

	e, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, e.Count)
	assert.True(t, e.WindowStart.Equal(start))
}

func TestStore_CompareAndSwap(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	start := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	first := quota.Entry{Count: 1, WindowStart: start}

	ok, err := s.CompareAndSwap(ctx, "u2", nil, first)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CompareAndSwap(ctx, "u2", nil, first)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.CompareAndSwap(ctx, "u2", &first, quota.Entry{Count: 2, WindowStart: start})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CompareAndSwap(ctx, "u2", &first, quota.Entry{Count: 3, WindowStart: start})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ConcurrentConsume(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	svc, err := quota.NewService(
		quota.WithLedger(quota.ClassAuthenticated, s, quota.Policy{Limit: 10, WindowLength: quota.DefaultWindowLength}),
		quota.WithMaxRetries(100),
	)
	require.NoError(t, err)

	id := quota.Identity{Class: quota.ClassAuthenticated, Key: "u3"}
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 25 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := svc.TryConsume(ctx, id)
			if !assert.NoError(t, err) {
				return
			}
			if d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
	e, err := s.Load(ctx, "u3")
	require.NoError(t, err)
	assert.Equal(t, 10, e.Count)
}
