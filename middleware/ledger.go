package middleware

import (
	"github.com/dmitrymomot/billforge/core/handler"
	"github.com/dmitrymomot/billforge/integration/ledger/cookie"
)

// LedgerExchange binds the request and response writer to the context so
// the cookie ledger store can read and write the anonymous usage cookie.
func LedgerExchange[C handler.Context]() handler.Middleware[C] {
	return func(next handler.HandlerFunc[C]) handler.HandlerFunc[C] {
		return func(ctx C) handler.Response {
			cookie.Bind(ctx)
			return next(ctx)
		}
	}
}
