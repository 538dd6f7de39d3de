// Package middleware provides handler.Middleware implementations shared by
// the HTTP API: request ids, request logging, caller identity, cookie ledger
// binding, body size limits and security headers.
//
// Every middleware is generic over the handler context type and comes in a
// default form and a WithConfig form:
//
//	adapter := handler.NewAdapter(handler.NewContext,
//		handler.WithMiddleware(
//			middleware.RequestID[handler.Context](),
//			middleware.LoggingWithLogger[handler.Context](log),
//			middleware.Identity[handler.Context](jwtService),
//			middleware.LedgerExchange[handler.Context](),
//		),
//	)
//
// Values stored by a middleware are read back with the matching Get helper,
// for example GetRequestID or GetIdentity.
package middleware
