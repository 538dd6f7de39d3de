package handler

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

var (
	ErrNilResponse = errors.New("handler: nil response")
)

// PanicError wraps a value recovered from a panicking handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler: panic: %v", e.Value)
}

// Adapter turns typed handlers into net/http handlers.
type Adapter[C Context] struct {
	newContext   func(http.ResponseWriter, *http.Request) C
	errorHandler ErrorHandler[C]
	middlewares  []Middleware[C]
}

// AdapterOption configures an Adapter.
type AdapterOption[C Context] func(*Adapter[C])

// WithErrorHandler sets the handler for errors and panics.
func WithErrorHandler[C Context](h ErrorHandler[C]) AdapterOption[C] {
	return func(a *Adapter[C]) {
		if h != nil {
			a.errorHandler = h
		}
	}
}

// WithMiddleware appends typed middleware applied to every handler.
func WithMiddleware[C Context](mw ...Middleware[C]) AdapterOption[C] {
	return func(a *Adapter[C]) { a.middlewares = append(a.middlewares, mw...) }
}

// NewAdapter creates an adapter using newContext to build request contexts.
func NewAdapter[C Context](newContext func(http.ResponseWriter, *http.Request) C, opts ...AdapterOption[C]) *Adapter[C] {
	a := &Adapter[C]{
		newContext:   newContext,
		errorHandler: plainErrorHandler[C],
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handle wraps fn with the adapter's middleware and error handling.
func (a *Adapter[C]) Handle(fn HandlerFunc[C]) http.HandlerFunc {
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		fn = a.middlewares[i](fn)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := a.newContext(w, r)

		defer func() {
			if p := recover(); p != nil {
				a.errorHandler(ctx, &PanicError{Value: p, Stack: debug.Stack()})
			}
		}()

		resp := fn(ctx)
		if resp == nil {
			a.errorHandler(ctx, ErrNilResponse)
			return
		}
		if err := resp(ctx.ResponseWriter(), ctx.Request()); err != nil {
			a.errorHandler(ctx, err)
		}
	}
}

type statusCoder interface {
	StatusCode() int
}

func plainErrorHandler[C Context](ctx C, err error) {
	status := http.StatusInternalServerError
	var sc statusCoder
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}
	http.Error(ctx.ResponseWriter(), err.Error(), status)
}
