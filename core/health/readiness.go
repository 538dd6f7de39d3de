package health

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/billforge/core/handler"
	"github.com/dmitrymomot/billforge/core/logger"
	"github.com/dmitrymomot/billforge/core/response"
)

// DefaultCheckTimeout bounds each readiness probe.
const DefaultCheckTimeout = 5 * time.Second

// Check is a named dependency probe.
type Check struct {
	Name string
	Fn   func(context.Context) error
}

// Readiness runs all checks concurrently. It responds "READY" when every
// check passes and 503 otherwise.
func Readiness[C handler.Context](log *slog.Logger, checks ...Check) handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		cctx, cancel := context.WithTimeout(ctx, DefaultCheckTimeout)
		defer cancel()

		eg, ectx := errgroup.WithContext(cctx)
		for _, c := range checks {
			eg.Go(func() error {
				if err := c.Fn(ectx); err != nil {
					log.ErrorContext(ctx, "readiness check failed",
						logger.Component("health"),
						slog.String("check", c.Name),
						logger.Error(err),
					)
					return err
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return response.Error(response.ErrServiceUnavailable)
		}
		return response.String("READY")
	}
}
