package bill

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps bills in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	bills map[string]Bill
	now   func() time.Time
}

// NewMemoryRepository creates an empty repository. now defaults to time.Now.
func NewMemoryRepository(now func() time.Time) *MemoryRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryRepository{bills: make(map[string]Bill), now: now}
}

func (m *MemoryRepository) Create(_ context.Context, b Bill) (Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ts := m.now().UTC()
	b.ID = uuid.NewString()
	b.CreatedAt = ts
	b.UpdatedAt = ts
	m.bills[b.ID] = b
	return b, nil
}

func (m *MemoryRepository) Get(_ context.Context, userID, id string) (Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bills[id]
	if !ok || b.UserID != userID {
		return Bill{}, ErrNotFound
	}
	return b, nil
}

func (m *MemoryRepository) List(_ context.Context, userID string, f ListFilter) ([]Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Bill, 0)
	for _, b := range m.bills {
		if b.UserID == userID && (f.Type == "" || b.Type == f.Type) {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b Bill) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryRepository) Update(_ context.Context, b Bill) (Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.bills[b.ID]
	if !ok || cur.UserID != b.UserID {
		return Bill{}, ErrNotFound
	}
	b.CreatedAt = cur.CreatedAt
	b.UpdatedAt = m.now().UTC()
	m.bills[b.ID] = b
	return b, nil
}

func (m *MemoryRepository) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bills[id]
	if !ok || b.UserID != userID {
		return ErrNotFound
	}
	delete(m.bills, id)
	return nil
}
