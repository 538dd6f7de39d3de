package cookie

import (
	"errors"
	"fmt"
)

var (
	ErrNoSecret         = errors.New("cookie: at least one secret is required")
	ErrSecretTooShort   = errors.New("cookie: secret too short")
	ErrInvalidSignature = errors.New("cookie: invalid signature")
	ErrInvalidFormat    = errors.New("cookie: invalid format")
	ErrCookieNotFound   = errors.New("cookie: not found")
)

// ErrCookieTooLarge reports a cookie exceeding the manager's size limit.
type ErrCookieTooLarge struct {
	Name string
	Size int
	Max  int
}

func (e ErrCookieTooLarge) Error() string {
	return fmt.Sprintf("cookie: %q is %d bytes, max %d", e.Name, e.Size, e.Max)
}
