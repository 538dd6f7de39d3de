//go:build integration

package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billforge/core/quota"
	"github.com/dmitrymomot/billforge/integration/database/pg"
	"github.com/dmitrymomot/billforge/integration/ledger/postgres"
)

func setup(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("PG_CONN_URL")
	if url == "" {
		t.Skip("PG_CONN_URL not set")
	}

	ctx := context.Background()
	cfg := pg.Config{ConnectionString: url, RetryAttempts: 1}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Migrate(ctx, pool, cfg, postgres.Migrations()))
	return pool
}

func TestStore_LoadSave(t *testing.T) {
	s := postgres.New(setup(t))
	ctx := context.Background()
	key := uuid.NewString()

	_, err := s.Load(ctx, key)
	assert.ErrorIs(t, err, quota.ErrEntryNotFound)

	start := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(ctx, key, quota.Entry{Count: 2, WindowStart: start}))
	require.NoError(t, s.Save(ctx, key, quota.Entry{Count: 3, WindowStart: start}))

	e, err := s.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 3, e.Count)
	assert.True(t, e.WindowStart.Equal(start))
}

func TestStore_CompareAndSwap(t *testing.T) {
	s := postgres.New(setup(t))
	ctx := context.Background()
	key := uuid.NewString()
	start := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	first := quota.Entry{Count: 1, WindowStart: start}

	ok, err := s.CompareAndSwap(ctx, key, nil, first)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CompareAndSwap(ctx, key, nil, first)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.CompareAndSwap(ctx, key, &first, quota.Entry{Count: 2, WindowStart: start})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CompareAndSwap(ctx, key, &first, quota.Entry{Count: 3, WindowStart: start})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_RollbackDiscardsConsume(t *testing.T) {
	pool := setup(t)
	s := postgres.New(pool)
	ctx := context.Background()
	key := uuid.NewString()

	svc, err := quota.NewService(
		quota.WithLedger(quota.ClassAuthenticated, s, quota.Policy{Limit: 10, WindowLength: quota.DefaultWindowLength}),
	)
	require.NoError(t, err)

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	d, err := svc.TryConsume(pg.WithTx(ctx, tx), quota.Identity{Class: quota.ClassAuthenticated, Key: key})
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	require.NoError(t, tx.Rollback(ctx))

	_, err = s.Load(ctx, key)
	assert.ErrorIs(t, err, quota.ErrEntryNotFound)
}

func TestStore_ConcurrentConsume(t *testing.T) {
	s := postgres.New(setup(t))
	ctx := context.Background()

	svc, err := quota.NewService(
		quota.WithLedger(quota.ClassAuthenticated, s, quota.Policy{Limit: 10, WindowLength: quota.DefaultWindowLength}),
		quota.WithMaxRetries(100),
	)
	require.NoError(t, err)

	id := quota.Identity{Class: quota.ClassAuthenticated, Key: uuid.NewString()}
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.TryConsume(ctx, id)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	e, err := s.Load(ctx, id.Key)
	require.NoError(t, err)
	assert.Equal(t, 10, e.Count)
}
