package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Context defines the contract for request contexts.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter
	Param(key string) string
	SetValue(key, val any)
}

type requestContext struct {
	context.Context
	w http.ResponseWriter
	r *http.Request
}

// NewContext builds the default Context for a request.
func NewContext(w http.ResponseWriter, r *http.Request) Context {
	return &requestContext{Context: r.Context(), w: w, r: r}
}

func (c *requestContext) Request() *http.Request { return c.r }

func (c *requestContext) ResponseWriter() http.ResponseWriter { return c.w }

// Param returns a chi URL parameter, or "" when absent.
func (c *requestContext) Param(key string) string {
	return chi.URLParam(c.r, key)
}

// SetValue stores val on both the context and the request so that
// responses rendered later observe it.
func (c *requestContext) SetValue(key, val any) {
	c.Context = context.WithValue(c.Context, key, val)
	c.r = c.r.WithContext(c.Context)
}
