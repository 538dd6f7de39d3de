package quota

import (
	"errors"
	"fmt"
)

var (
	ErrEntryNotFound   = errors.New("quota: ledger entry not found")
	ErrMalformedEntry  = errors.New("quota: malformed ledger entry")
	ErrUnknownIdentity = errors.New("quota: unknown identity")
	ErrUnknownClass    = errors.New("quota: no ledger configured for identity class")
	ErrConflict        = errors.New("quota: concurrent ledger update")
	ErrInvalidPolicy   = errors.New("quota: invalid policy")
	ErrNoLedgers       = errors.New("quota: at least one ledger is required")
)

// StorageError reports a failed read or write of a ledger entry.
// The operation did not take effect and may be retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("quota: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Retryable is always true: storage failures never leave a partial update behind.
func (e *StorageError) Retryable() bool { return true }

// IsStorageError reports whether err is or wraps a *StorageError.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
