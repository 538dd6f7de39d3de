package handler

import "net/http"

// Response writes an HTTP response: headers, status code and body.
// A returned error is passed to the adapter's ErrorHandler.
type Response func(w http.ResponseWriter, r *http.Request) error

// HandlerFunc is a request handler with a typed context.
type HandlerFunc[C Context] func(ctx C) Response

// ErrorHandler renders errors produced during request processing.
type ErrorHandler[C Context] func(ctx C, err error)

// Middleware wraps handlers to add cross-cutting behaviour.
type Middleware[C Context] func(next HandlerFunc[C]) HandlerFunc[C]
