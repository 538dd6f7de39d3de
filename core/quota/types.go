package quota

import (
	"fmt"
	"time"
)

// DefaultWindowLength is the length of one accounting window.
const DefaultWindowLength = 7 * 24 * time.Hour

// Class distinguishes identities that are billed against different ledgers and limits.
type Class string

const (
	ClassAnonymous     Class = "anonymous"
	ClassAuthenticated Class = "authenticated"
)

func (c Class) String() string { return string(c) }

// Identity addresses a single ledger entry.
// Key is the account id for authenticated callers. For anonymous callers it
// may be empty when the store keys entries by the request itself.
type Identity struct {
	Class Class
	Key   string
}

// Entry is the persisted usage record of one identity.
type Entry struct {
	Count       int
	WindowStart time.Time
}

// NewEntry returns an unused entry whose window opens at now.
func NewEntry(now time.Time) Entry {
	return Entry{Count: 0, WindowStart: now}
}

// Equal reports whether both entries hold the same count and window start.
func (e Entry) Equal(other Entry) bool {
	return e.Count == other.Count && e.WindowStart.Equal(other.WindowStart)
}

// Policy configures the limit and window of one identity class.
type Policy struct {
	Limit        int
	WindowLength time.Duration
}

// Validate checks that the policy can be evaluated.
func (p Policy) Validate() error {
	if p.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative, got %d", ErrInvalidPolicy, p.Limit)
	}
	if p.WindowLength <= 0 {
		return fmt.Errorf("%w: window length must be positive, got %s", ErrInvalidPolicy, p.WindowLength)
	}
	return nil
}

// Snapshot is the usage view returned to callers.
type Snapshot struct {
	Count       int       `json:"count"`
	Limit       int       `json:"limit"`
	Remaining   int       `json:"remaining"`
	WindowStart time.Time `json:"window_start"`
	ResetsAt    time.Time `json:"resets_at"`
}

// NewSnapshot derives the usage view of an entry under a policy.
func NewSnapshot(e Entry, p Policy) Snapshot {
	remaining := p.Limit - e.Count
	if remaining < 0 {
		remaining = 0
	}
	return Snapshot{
		Count:       e.Count,
		Limit:       p.Limit,
		Remaining:   remaining,
		WindowStart: e.WindowStart,
		ResetsAt:    e.WindowStart.Add(p.WindowLength),
	}
}

// Decision is the result of an admission attempt.
// A denied decision is a regular outcome, not an error.
type Decision struct {
	Allowed bool     `json:"allowed"`
	Usage   Snapshot `json:"credits"`
}
