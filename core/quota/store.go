package quota

import "context"

// LedgerStore persists ledger entries.
//
// Load returns ErrEntryNotFound when no entry exists and ErrMalformedEntry
// when a stored value cannot be decoded. Any other error is a storage failure.
type LedgerStore interface {
	Load(ctx context.Context, key string) (Entry, error)
	Save(ctx context.Context, key string, e Entry) error
}

// ConditionalStore is implemented by stores that can write atomically.
//
// CompareAndSwap stores next only if the current value equals *expected, or
// if no entry exists when expected is nil. It returns false without error
// when the condition did not hold.
type ConditionalStore interface {
	LedgerStore
	CompareAndSwap(ctx context.Context, key string, expected *Entry, next Entry) (bool, error)
}
