package quota_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billforge/core/quota"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock { return &fakeClock{now: now} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// plainStore hides CompareAndSwap so the service uses unconditional writes.
type plainStore struct {
	inner *quota.MemoryStore
	saves atomic.Int32
}

func (s *plainStore) Load(ctx context.Context, key string) (quota.Entry, error) {
	return s.inner.Load(ctx, key)
}

func (s *plainStore) Save(ctx context.Context, key string, e quota.Entry) error {
	s.saves.Add(1)
	return s.inner.Save(ctx, key, e)
}

type failingStore struct{ err error }

func (s failingStore) Load(context.Context, string) (quota.Entry, error) { return quota.Entry{}, s.err }
func (s failingStore) Save(context.Context, string, quota.Entry) error  { return s.err }

// malformedStore reports a corrupt value until something is saved.
type malformedStore struct {
	mu    sync.Mutex
	entry *quota.Entry
}

func (s *malformedStore) Load(context.Context, string) (quota.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry == nil {
		return quota.Entry{}, quota.ErrMalformedEntry
	}
	return *s.entry, nil
}

func (s *malformedStore) Save(_ context.Context, _ string, e quota.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry = &e
	return nil
}

// contendedStore loses the first n compare-and-swap attempts.
type contendedStore struct {
	*quota.MemoryStore
	lose  atomic.Int32
	swaps atomic.Int32
}

func (s *contendedStore) CompareAndSwap(ctx context.Context, key string, expected *quota.Entry, next quota.Entry) (bool, error) {
	s.swaps.Add(1)
	if s.lose.Add(-1) >= 0 {
		return false, nil
	}
	return s.MemoryStore.CompareAndSwap(ctx, key, expected, next)
}

func newService(t *testing.T, class quota.Class, store quota.LedgerStore, p quota.Policy, clock *fakeClock, opts ...quota.Option) *quota.Service {
	t.Helper()
	opts = append([]quota.Option{
		quota.WithLedger(class, store, p),
		quota.WithClock(clock.Now),
	}, opts...)
	svc, err := quota.NewService(opts...)
	require.NoError(t, err)
	return svc
}

func TestNewService(t *testing.T) {
	t.Parallel()

	t.Run("requires a ledger", func(t *testing.T) {
		t.Parallel()
		_, err := quota.NewService()
		assert.ErrorIs(t, err, quota.ErrNoLedgers)
	})

	t.Run("rejects invalid policy", func(t *testing.T) {
		t.Parallel()
		_, err := quota.NewService(quota.WithLedger(quota.ClassAnonymous, quota.NewMemoryStore(), quota.Policy{Limit: 1}))
		assert.ErrorIs(t, err, quota.ErrInvalidPolicy)
	})

	t.Run("rejects nil store", func(t *testing.T) {
		t.Parallel()
		_, err := quota.NewService(quota.WithLedger(quota.ClassAnonymous, nil, policy))
		assert.Error(t, err)
	})
}

func TestService_AnonymousFirstVisit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock(t0)
	svc := newService(t, quota.ClassAnonymous, quota.NewMemoryStore(), policy, clock)
	id := quota.Identity{Class: quota.ClassAnonymous, Key: "visitor"}

	snap, err := svc.Peek(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Count)
	assert.Equal(t, 2, snap.Limit)
	assert.Equal(t, 2, snap.Remaining)

	for i := 1; i <= 2; i++ {
		dec, err := svc.TryConsume(ctx, id)
		require.NoError(t, err)
		assert.True(t, dec.Allowed)
		assert.Equal(t, i, dec.Usage.Count)
	}

	dec, err := svc.TryConsume(ctx, id)
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, 2, dec.Usage.Count)
	assert.Equal(t, 0, dec.Usage.Remaining)
	assert.True(t, dec.Usage.ResetsAt.Equal(t0.Add(quota.DefaultWindowLength)))

	snap, err = svc.Peek(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Count)
}

func TestService_ResetOnConsume(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := quota.NewMemoryStore()
	require.NoError(t, store.Save(ctx, "user-1", quota.Entry{Count: 10, WindowStart: t0}))

	clock := newFakeClock(t0.Add(8 * 24 * time.Hour))
	p := quota.Policy{Limit: 10, WindowLength: quota.DefaultWindowLength}
	svc := newService(t, quota.ClassAuthenticated, store, p, clock)

	dec, err := svc.TryConsume(ctx, quota.Identity{Class: quota.ClassAuthenticated, Key: "user-1"})
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.Equal(t, 1, dec.Usage.Count)
	assert.True(t, dec.Usage.WindowStart.Equal(clock.Now()))

	stored, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Count)
	assert.True(t, stored.WindowStart.Equal(clock.Now()))
}

func TestService_PeekExhaustedDoesNotWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &plainStore{inner: quota.NewMemoryStore()}
	require.NoError(t, store.inner.Save(ctx, "user-1", quota.Entry{Count: 10, WindowStart: t0}))

	clock := newFakeClock(t0.Add(3 * 24 * time.Hour))
	p := quota.Policy{Limit: 10, WindowLength: quota.DefaultWindowLength}
	svc := newService(t, quota.ClassAuthenticated, store, p, clock)
	id := quota.Identity{Class: quota.ClassAuthenticated, Key: "user-1"}

	snap, err := svc.Peek(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 10, snap.Count)
	assert.Equal(t, 0, snap.Remaining)
	assert.True(t, snap.ResetsAt.Equal(t0.Add(quota.DefaultWindowLength)))

	dec, err := svc.TryConsume(ctx, id)
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, int32(0), store.saves.Load())
}

func TestService_PeekPersistsReset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := quota.NewMemoryStore()
	require.NoError(t, store.Save(ctx, "user-1", quota.Entry{Count: 4, WindowStart: t0}))

	clock := newFakeClock(t0.Add(quota.DefaultWindowLength))
	svc := newService(t, quota.ClassAuthenticated, store, policy, clock)

	snap, err := svc.Peek(ctx, quota.Identity{Class: quota.ClassAuthenticated, Key: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Count)

	stored, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Count)
	assert.True(t, stored.WindowStart.Equal(clock.Now()))
}

func TestService_WindowBoundary(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock(t0)
	svc := newService(t, quota.ClassAnonymous, quota.NewMemoryStore(), policy, clock)
	id := quota.Identity{Class: quota.ClassAnonymous, Key: "v"}

	for range 2 {
		_, err := svc.TryConsume(ctx, id)
		require.NoError(t, err)
	}

	clock.Advance(quota.DefaultWindowLength - time.Millisecond)
	dec, err := svc.TryConsume(ctx, id)
	require.NoError(t, err)
	assert.False(t, dec.Allowed)

	clock.Advance(time.Millisecond)
	dec, err = svc.TryConsume(ctx, id)
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.Equal(t, 1, dec.Usage.Count)
}

func TestService_ConcurrentConsume(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := quota.NewMemoryStore()
	p := quota.Policy{Limit: 10, WindowLength: quota.DefaultWindowLength}
	clock := newFakeClock(t0)
	svc := newService(t, quota.ClassAuthenticated, store, p, clock, quota.WithMaxRetries(100))
	id := quota.Identity{Class: quota.ClassAuthenticated, Key: "user-1"}

	require.NoError(t, store.Save(ctx, "user-1", quota.Entry{Count: 9, WindowStart: t0}))

	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dec, err := svc.TryConsume(ctx, id)
			if assert.NoError(t, err) && dec.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), allowed.Load())
	stored, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Count)
}

func TestService_ConflictRetry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock(t0)
	id := quota.Identity{Class: quota.ClassAuthenticated, Key: "user-1"}

	t.Run("retries until swap succeeds", func(t *testing.T) {
		t.Parallel()
		store := &contendedStore{MemoryStore: quota.NewMemoryStore()}
		store.lose.Store(2)
		svc := newService(t, quota.ClassAuthenticated, store, policy, clock)

		dec, err := svc.TryConsume(ctx, id)
		require.NoError(t, err)
		assert.True(t, dec.Allowed)
		assert.Equal(t, int32(3), store.swaps.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		t.Parallel()
		store := &contendedStore{MemoryStore: quota.NewMemoryStore()}
		store.lose.Store(100)
		svc := newService(t, quota.ClassAuthenticated, store, policy, clock, quota.WithMaxRetries(3))

		_, err := svc.TryConsume(ctx, id)
		require.Error(t, err)
		assert.ErrorIs(t, err, quota.ErrConflict)
		assert.True(t, quota.IsStorageError(err))
		assert.Equal(t, int32(4), store.swaps.Load())
		assert.Equal(t, 0, store.Len())
	})
}

func TestService_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock(t0)

	t.Run("storage failure", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("connection refused")
		svc := newService(t, quota.ClassAuthenticated, failingStore{err: cause}, policy, clock)
		id := quota.Identity{Class: quota.ClassAuthenticated, Key: "u"}

		_, err := svc.TryConsume(ctx, id)
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)

		var se *quota.StorageError
		require.ErrorAs(t, err, &se)
		assert.True(t, se.Retryable())
		assert.Equal(t, "consume.load", se.Op)

		_, err = svc.Peek(ctx, id)
		assert.True(t, quota.IsStorageError(err))
	})

	t.Run("unknown identity", func(t *testing.T) {
		t.Parallel()
		svc := newService(t, quota.ClassAuthenticated, failingStore{err: quota.ErrUnknownIdentity}, policy, clock)

		_, err := svc.Peek(ctx, quota.Identity{Class: quota.ClassAuthenticated, Key: "ghost"})
		assert.ErrorIs(t, err, quota.ErrUnknownIdentity)
		assert.False(t, quota.IsStorageError(err))
	})

	t.Run("unknown class", func(t *testing.T) {
		t.Parallel()
		svc := newService(t, quota.ClassAnonymous, quota.NewMemoryStore(), policy, clock)

		_, err := svc.TryConsume(ctx, quota.Identity{Class: quota.ClassAuthenticated, Key: "u"})
		assert.ErrorIs(t, err, quota.ErrUnknownClass)

		_, err = svc.Policy(quota.ClassAuthenticated)
		assert.ErrorIs(t, err, quota.ErrUnknownClass)
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()
		svc := newService(t, quota.ClassAnonymous, quota.NewMemoryStore(), policy, clock)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := svc.TryConsume(cctx, quota.Identity{Class: quota.ClassAnonymous, Key: "v"})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestService_MalformedEntry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock(t0)
	store := &malformedStore{}
	svc := newService(t, quota.ClassAnonymous, store, policy, clock)

	dec, err := svc.TryConsume(ctx, quota.Identity{Class: quota.ClassAnonymous})
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
	assert.Equal(t, 1, dec.Usage.Count)

	stored, err := store.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Count)
	assert.True(t, stored.WindowStart.Equal(t0))
}

func TestService_PlainStoreWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := newFakeClock(t0)
	store := &plainStore{inner: quota.NewMemoryStore()}
	svc := newService(t, quota.ClassAnonymous, store, policy, clock)
	id := quota.Identity{Class: quota.ClassAnonymous, Key: "v"}

	_, err := svc.Peek(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int32(1), store.saves.Load())

	_, err = svc.Peek(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int32(1), store.saves.Load())
}

func TestService_TimeTruncation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	local := time.FixedZone("IST", 5*3600+1800)
	clock := newFakeClock(t0.Add(1500 * time.Microsecond).In(local))
	svc := newService(t, quota.ClassAnonymous, quota.NewMemoryStore(), policy, clock)

	snap, err := svc.Peek(ctx, quota.Identity{Class: quota.ClassAnonymous, Key: "v"})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, snap.WindowStart.Location())
	assert.True(t, snap.WindowStart.Equal(t0.Add(time.Millisecond)))
}

func TestService_Recorder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := prometheus.NewRegistry()
	rec := quota.NewPrometheusRecorder(reg)
	clock := newFakeClock(t0)
	p := quota.Policy{Limit: 1, WindowLength: quota.DefaultWindowLength}
	svc := newService(t, quota.ClassAnonymous, quota.NewMemoryStore(), p, clock, quota.WithRecorder(rec))
	id := quota.Identity{Class: quota.ClassAnonymous, Key: "v"}

	_, err := svc.TryConsume(ctx, id)
	require.NoError(t, err)
	_, err = svc.TryConsume(ctx, id)
	require.NoError(t, err)

	clock.Advance(quota.DefaultWindowLength)
	_, err = svc.Peek(ctx, id)
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "billforge_quota_decisions_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, float64(1), testutil.ToFloat64(rec.Counter(quota.ClassAnonymous, quota.OutcomeDenied)))
}

func TestService_AuthenticatedWeek(t *testing.T) {
	t.Parallel()

	authPolicy := quota.Policy{Limit: 10, WindowLength: 7 * 24 * time.Hour}
	id := quota.Identity{Class: quota.ClassAuthenticated, Key: "user-1"}

	t.Run("peek resets an expired full window", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		now := t0.Add(8 * 24 * time.Hour)
		store := quota.NewMemoryStore()
		require.NoError(t, store.Save(ctx, "user-1", quota.Entry{Count: 10, WindowStart: now.Add(-8 * 24 * time.Hour)}))

		clock := newFakeClock(now)
		svc := newService(t, quota.ClassAuthenticated, store, authPolicy, clock)

		snap, err := svc.Peek(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 0, snap.Count)
		assert.Equal(t, 10, snap.Remaining)
		assert.True(t, snap.WindowStart.Equal(now))

		stored, err := store.Load(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 0, stored.Count)
		assert.True(t, stored.WindowStart.Equal(now))
	})

	t.Run("last credit then denial until the window elapses", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		now := t0.Add(24 * time.Hour)
		start := now.Add(-24 * time.Hour)
		store := quota.NewMemoryStore()
		require.NoError(t, store.Save(ctx, "user-1", quota.Entry{Count: 9, WindowStart: start}))

		clock := newFakeClock(now)
		svc := newService(t, quota.ClassAuthenticated, store, authPolicy, clock)

		dec, err := svc.TryConsume(ctx, id)
		require.NoError(t, err)
		assert.True(t, dec.Allowed)
		assert.Equal(t, 10, dec.Usage.Count)

		dec, err = svc.TryConsume(ctx, id)
		require.NoError(t, err)
		assert.False(t, dec.Allowed)
		assert.Equal(t, 10, dec.Usage.Count)
		assert.True(t, dec.Usage.ResetsAt.Equal(start.Add(7*24*time.Hour)))

		clock.Advance(6*24*time.Hour - time.Millisecond)
		dec, err = svc.TryConsume(ctx, id)
		require.NoError(t, err)
		assert.False(t, dec.Allowed)

		stored, err := store.Load(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 10, stored.Count)
		assert.True(t, stored.WindowStart.Equal(start))

		clock.Advance(time.Millisecond)
		dec, err = svc.TryConsume(ctx, id)
		require.NoError(t, err)
		assert.True(t, dec.Allowed)
		assert.Equal(t, 1, dec.Usage.Count)
	})
}
