package bill

import (
	"context"
	"errors"
)

var (
	ErrNotFound    = errors.New("bill: not found")
	ErrInvalidType = errors.New("bill: unknown bill type")
)

// ListFilter narrows List results. A zero Type lists every type.
type ListFilter struct {
	Type  Type
	Limit int
}

// Repository stores bills. Every method is scoped to the owning user: a bill
// owned by someone else is reported as ErrNotFound.
type Repository interface {
	Create(ctx context.Context, b Bill) (Bill, error)
	Get(ctx context.Context, userID, id string) (Bill, error)
	List(ctx context.Context, userID string, f ListFilter) ([]Bill, error)
	Update(ctx context.Context, b Bill) (Bill, error)
	Delete(ctx context.Context, userID, id string) error
}
