// Package handler defines the request processing types shared by the HTTP layer.
//
// A HandlerFunc receives a typed request context and returns a Response, a
// deferred writer that sets headers, status and body. Errors returned while
// writing the response go to the adapter's ErrorHandler, which keeps error
// formatting in one place.
//
//	a := handler.NewAdapter(handler.NewContext, handler.WithErrorHandler(response.JSONErrorHandler[handler.Context]))
//	r.Get("/api/credits", a.Handle(creditsHandler))
//
// Context wraps the request's context.Context and exposes path parameters
// resolved by chi.
package handler
