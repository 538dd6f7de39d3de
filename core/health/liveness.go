package health

import (
	"github.com/dmitrymomot/billforge/core/handler"
	"github.com/dmitrymomot/billforge/core/response"
)

// Liveness reports that the process is up. No dependency checks.
func Liveness[C handler.Context](C) handler.Response {
	return response.String("ALIVE")
}
