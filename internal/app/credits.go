package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/billforge/core/handler"
	"github.com/dmitrymomot/billforge/core/logger"
	"github.com/dmitrymomot/billforge/core/quota"
	"github.com/dmitrymomot/billforge/core/response"
	"github.com/dmitrymomot/billforge/middleware"
)

const (
	limitReached    = "You have reached your weekly bill generation limit."
	anonymousDenial = limitReached + " Please sign in or create an account to generate more bills."
)

type creditsResponse struct {
	Authenticated bool           `json:"authenticated"`
	Allowed       *bool          `json:"allowed,omitempty"`
	Credits       quota.Snapshot `json:"credits"`
	Degraded      bool           `json:"degraded,omitempty"`
}

// getCredits reports usage without spending a credit.
func (a *App) getCredits(ctx handler.Context) handler.Response {
	id := middleware.GetIdentity(ctx)

	snap, err := a.quota.Peek(ctx, id)
	if err != nil {
		fallback, derr := a.degrade(ctx, id, "peek", err)
		if derr != nil {
			return response.Error(derr)
		}
		return response.JSON(creditsResponse{
			Authenticated: id.Class == quota.ClassAuthenticated,
			Credits:       fallback,
			Degraded:      true,
		})
	}

	return response.JSON(creditsResponse{
		Authenticated: id.Class == quota.ClassAuthenticated,
		Credits:       snap,
	})
}

// consumeCredit spends one credit for a bill generated on the client.
func (a *App) consumeCredit(ctx handler.Context) handler.Response {
	id := middleware.GetIdentity(ctx)

	d, degraded, err := a.consume(ctx, id)
	if err != nil {
		return response.Error(err)
	}
	if !d.Allowed {
		return response.Error(quotaDenied(id, d.Usage))
	}

	allowed := true
	return response.JSON(creditsResponse{
		Authenticated: id.Class == quota.ClassAuthenticated,
		Allowed:       &allowed,
		Credits:       d.Usage,
		Degraded:      degraded,
	})
}

// consume runs TryConsume and applies the failure policy to storage errors.
// The boolean reports that the ledger was bypassed.
func (a *App) consume(ctx context.Context, id quota.Identity) (quota.Decision, bool, error) {
	d, err := a.quota.TryConsume(ctx, id)
	if err == nil {
		return d, false, nil
	}

	snap, derr := a.degrade(ctx, id, "consume", err)
	if derr != nil {
		return quota.Decision{}, false, derr
	}
	return quota.Decision{Allowed: true, Usage: snap}, true, nil
}

// degrade maps a quota error to an HTTP error, or to a synthetic snapshot
// when the failure policy is open.
func (a *App) degrade(ctx context.Context, id quota.Identity, action string, err error) (quota.Snapshot, error) {
	switch {
	case errors.Is(err, quota.ErrUnknownIdentity):
		return quota.Snapshot{}, response.ErrNotFound.WithMessage("User not found")
	case errors.Is(err, quota.ErrUnknownClass):
		return quota.Snapshot{}, response.ErrForbidden.WithMessage("Bill generation is not available for this account type.")
	case !quota.IsStorageError(err):
		return quota.Snapshot{}, err
	}

	a.logger.ErrorContext(ctx, "quota ledger unavailable",
		logger.Component("app"),
		logger.Action(action),
		logger.Class(id.Class.String()),
		logger.Result(string(a.failure)),
		logger.Error(err),
	)

	if a.failure != quota.FailOpen {
		return quota.Snapshot{}, response.ErrStorageUnavailable
	}

	policy, perr := a.quota.Policy(id.Class)
	if perr != nil {
		return quota.Snapshot{}, perr
	}
	return quota.NewSnapshot(quota.NewEntry(a.now().UTC().Truncate(time.Millisecond)), policy), nil
}

// quotaDenied builds the 403 returned once the weekly credits are spent.
func quotaDenied(id quota.Identity, usage quota.Snapshot) error {
	msg := anonymousDenial
	if id.Class == quota.ClassAuthenticated {
		msg = fmt.Sprintf("%s Please try again after %s.", limitReached, usage.ResetsAt.Format("02 Jan 2006"))
	}
	return response.ErrQuotaExceeded.
		WithMessage(msg).
		WithDetails(map[string]any{
			"credits":   usage,
			"resets_at": usage.ResetsAt,
		})
}
