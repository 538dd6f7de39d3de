package quota

import (
	"fmt"
	"strings"
)

// FailurePolicy decides how callers degrade when the ledger cannot be reached.
type FailurePolicy string

const (
	// FailClosed rejects the operation with a retryable error.
	FailClosed FailurePolicy = "closed"
	// FailOpen lets the operation through without charging a credit.
	FailOpen FailurePolicy = "open"
)

// ParseFailurePolicy parses "closed" or "open", case-insensitively.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch p := FailurePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case FailClosed, FailOpen:
		return p, nil
	case "":
		return FailClosed, nil
	default:
		return "", fmt.Errorf("quota: unknown failure policy %q", s)
	}
}
