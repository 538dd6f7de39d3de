package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/billforge/core/quota"
	"github.com/dmitrymomot/billforge/integration/database/pg"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrations returns the schema migrations rooted at the migrations directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

const (
	selectEntry = `SELECT count, window_start FROM quota_ledger WHERE identity = $1`

	upsertEntry = `INSERT INTO quota_ledger (identity, count, window_start, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (identity) DO UPDATE
SET count = EXCLUDED.count, window_start = EXCLUDED.window_start, updated_at = now()`

	insertEntry = `INSERT INTO quota_ledger (identity, count, window_start, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (identity) DO NOTHING`

	swapEntry = `UPDATE quota_ledger
SET count = $2, window_start = $3, updated_at = now()
WHERE identity = $1 AND count = $4 AND window_start = $5`
)

// DB is the subset of pgxpool.Pool and pgx.Tx the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements quota.ConditionalStore on PostgreSQL.
type Store struct {
	db DB
}

// New creates a store. db is normally a *pgxpool.Pool.
func New(db DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) DB {
	if tx, ok := pg.TxFromContext(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Load(ctx context.Context, key string) (quota.Entry, error) {
	var (
		count int
		start time.Time
	)
	if err := s.conn(ctx).QueryRow(ctx, selectEntry, key).Scan(&count, &start); err != nil {
		if pg.IsNotFoundError(err) {
			return quota.Entry{}, quota.ErrEntryNotFound
		}
		return quota.Entry{}, fmt.Errorf("select ledger entry: %w", err)
	}
	if count < 0 {
		return quota.Entry{}, quota.ErrMalformedEntry
	}
	return quota.Entry{Count: count, WindowStart: start.UTC()}, nil
}

func (s *Store) Save(ctx context.Context, key string, e quota.Entry) error {
	if _, err := s.conn(ctx).Exec(ctx, upsertEntry, key, e.Count, e.WindowStart.UTC()); err != nil {
		return fmt.Errorf("upsert ledger entry: %w", err)
	}
	return nil
}

func (s *Store) CompareAndSwap(ctx context.Context, key string, expected *quota.Entry, next quota.Entry) (bool, error) {
	var (
		tag pgconn.CommandTag
		err error
	)
	if expected == nil {
		tag, err = s.conn(ctx).Exec(ctx, insertEntry, key, next.Count, next.WindowStart.UTC())
	} else {
		tag, err = s.conn(ctx).Exec(ctx, swapEntry, key, next.Count, next.WindowStart.UTC(),
			expected.Count, expected.WindowStart.UTC())
	}
	if err != nil {
		if pg.IsSerializationError(err) {
			return false, nil
		}
		return false, fmt.Errorf("swap ledger entry: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
