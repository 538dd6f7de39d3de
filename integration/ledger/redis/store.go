package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/billforge/core/quota"
)

// DefaultPrefix namespaces ledger keys.
const DefaultPrefix = "billforge:quota:"

const (
	fieldCount       = "count"
	fieldWindowStart = "window_start"
)

// casScript writes ARGV[4..5] when the hash matches the expectation.
// ARGV[1] is "0" when the key must not exist.
var casScript = goredis.NewScript(`
local cur = redis.call('HMGET', KEYS[1], 'count', 'window_start')
if ARGV[1] == '0' then
  if cur[1] or cur[2] then return 0 end
else
  if cur[1] ~= ARGV[2] or cur[2] ~= ARGV[3] then return 0 end
end
redis.call('HSET', KEYS[1], 'count', ARGV[4], 'window_start', ARGV[5])
redis.call('PEXPIRE', KEYS[1], ARGV[6])
return 1
`)

// Store implements quota.ConditionalStore on Redis.
type Store struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithTTL sets the key expiry, normally the window length of the class
// the store serves.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// New creates a Redis-backed ledger store.
func New(client goredis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: DefaultPrefix,
		ttl:    quota.DefaultWindowLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) Load(ctx context.Context, key string) (quota.Entry, error) {
	fields, err := s.client.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		return quota.Entry{}, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(fields) == 0 {
		return quota.Entry{}, quota.ErrEntryNotFound
	}

	count, err := strconv.Atoi(fields[fieldCount])
	if err != nil || count < 0 {
		return quota.Entry{}, errors.Join(quota.ErrMalformedEntry, err)
	}
	ms, err := strconv.ParseInt(fields[fieldWindowStart], 10, 64)
	if err != nil {
		return quota.Entry{}, errors.Join(quota.ErrMalformedEntry, err)
	}
	return quota.Entry{Count: count, WindowStart: time.UnixMilli(ms).UTC()}, nil
}

func (s *Store) Save(ctx context.Context, key string, e quota.Entry) error {
	k := s.key(key)
	_, err := s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, k)
		p.HSet(ctx, k, fieldCount, e.Count, fieldWindowStart, e.WindowStart.UnixMilli())
		p.PExpire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save: %w", err)
	}
	return nil
}

func (s *Store) CompareAndSwap(ctx context.Context, key string, expected *quota.Entry, next quota.Entry) (bool, error) {
	args := []any{"0", "", ""}
	if expected != nil {
		args = []any{"1", strconv.Itoa(expected.Count), strconv.FormatInt(expected.WindowStart.UnixMilli(), 10)}
	}
	args = append(args,
		strconv.Itoa(next.Count),
		strconv.FormatInt(next.WindowStart.UnixMilli(), 10),
		s.ttl.Milliseconds(),
	)

	n, err := casScript.Run(ctx, s.client, []string{s.key(key)}, args...).Int()
	if err != nil {
		return false, fmt.Errorf("redis compare-and-swap: %w", err)
	}
	return n == 1, nil
}
