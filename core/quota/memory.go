package quota

import (
	"context"
	"sync"
)

// MemoryStore keeps ledger entries in process memory.
// Suitable for tests and single-instance deployments.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (m *MemoryStore) Load(_ context.Context, key string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return e, nil
}

func (m *MemoryStore) Save(_ context.Context, key string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = e
	return nil
}

func (m *MemoryStore) CompareAndSwap(_ context.Context, key string, expected *Entry, next Entry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.entries[key]
	switch {
	case expected == nil && ok:
		return false, nil
	case expected != nil && (!ok || !current.Equal(*expected)):
		return false, nil
	}
	m.entries[key] = next
	return true, nil
}

// Len returns the number of stored entries.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
