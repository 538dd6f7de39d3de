package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/billforge/core/bill"
	"github.com/dmitrymomot/billforge/core/handler"
	"github.com/dmitrymomot/billforge/core/logger"
	"github.com/dmitrymomot/billforge/core/quota"
	"github.com/dmitrymomot/billforge/core/response"
	"github.com/dmitrymomot/billforge/middleware"
)

const maxListLimit = 100

type billResponse struct {
	Bill     bill.Bill       `json:"bill"`
	Credits  *quota.Snapshot `json:"credits,omitempty"`
	Degraded bool            `json:"degraded,omitempty"`
}

// owner returns the caller's account id, or an error for anonymous callers.
func owner(ctx handler.Context) (string, error) {
	id := middleware.GetIdentity(ctx)
	if id.Class != quota.ClassAuthenticated || id.Key == "" {
		return "", response.ErrUnauthorized.WithMessage("Unauthorized")
	}
	return id.Key, nil
}

func (a *App) listBills(ctx handler.Context) handler.Response {
	userID, err := owner(ctx)
	if err != nil {
		return response.Error(err)
	}

	q := ctx.Request().URL.Query()
	f := bill.ListFilter{Type: bill.Type(q.Get("type")), Limit: maxListLimit}
	if f.Type != "" && !f.Type.Valid() {
		return response.Error(response.ErrBadRequest.WithMessage("Unknown bill type."))
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return response.Error(response.ErrBadRequest.WithMessage("limit must be a positive integer"))
		}
		f.Limit = min(n, maxListLimit)
	}

	bills, err := a.bills.List(ctx, userID, f)
	if err != nil {
		return response.Error(a.storageError(ctx, "list_bills", err))
	}
	return response.JSON(map[string]any{"bills": bills})
}

// createBill validates the bill, spends a credit and stores the bill.
func (a *App) createBill(ctx handler.Context) handler.Response {
	userID, err := owner(ctx)
	if err != nil {
		return response.Error(err)
	}

	b, err := a.decodeBill(ctx)
	if err != nil {
		return response.Error(err)
	}
	b.UserID = userID

	id := middleware.GetIdentity(ctx)
	d, degraded, err := a.consume(ctx, id)
	if err != nil {
		return response.Error(err)
	}
	if !d.Allowed {
		return response.Error(quotaDenied(id, d.Usage))
	}

	created, err := a.bills.Create(ctx, b)
	if err != nil {
		a.storageError(ctx, "create_bill", err)
		return response.Error(unsavedBill(d.Usage, degraded))
	}

	a.logger.InfoContext(ctx, "bill created",
		logger.Component("app"),
		logger.BillID(created.ID),
		logger.UserID(userID),
		logger.Template(string(created.Type), created.TemplateID),
	)

	usage := d.Usage
	return response.JSONWithStatus(billResponse{Bill: created, Credits: &usage, Degraded: degraded}, http.StatusCreated)
}

func (a *App) getBill(ctx handler.Context) handler.Response {
	userID, err := owner(ctx)
	if err != nil {
		return response.Error(err)
	}

	b, err := a.bills.Get(ctx, userID, ctx.Param("id"))
	if err != nil {
		return response.Error(a.billError(ctx, "get_bill", err))
	}
	return response.JSON(billResponse{Bill: b})
}

func (a *App) updateBill(ctx handler.Context) handler.Response {
	userID, err := owner(ctx)
	if err != nil {
		return response.Error(err)
	}

	b, err := a.decodeBill(ctx)
	if err != nil {
		return response.Error(err)
	}
	b.ID = ctx.Param("id")
	b.UserID = userID

	updated, err := a.bills.Update(ctx, b)
	if err != nil {
		return response.Error(a.billError(ctx, "update_bill", err))
	}
	return response.JSON(billResponse{Bill: updated})
}

func (a *App) deleteBill(ctx handler.Context) handler.Response {
	userID, err := owner(ctx)
	if err != nil {
		return response.Error(err)
	}

	if err := a.bills.Delete(ctx, userID, ctx.Param("id")); err != nil {
		return response.Error(a.billError(ctx, "delete_bill", err))
	}
	return response.JSON(map[string]string{"message": "Bill deleted successfully"})
}

// decodeBill reads a bill from the request body, fills the default name and
// validates it.
func (a *App) decodeBill(ctx handler.Context) (bill.Bill, error) {
	var b bill.Bill
	dec := json.NewDecoder(ctx.Request().Body)
	if err := dec.Decode(&b); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return bill.Bill{}, response.ErrRequestEntityTooLarge
		}
		return bill.Bill{}, response.ErrBadRequest.WithMessage("Invalid JSON body.")
	}

	if b.Name == "" && b.Type.Valid() {
		b.Name = bill.DefaultName(b.Type, a.now())
	}
	if err := a.validator.Validate(b); err != nil {
		var verr *bill.ValidationError
		if errors.As(err, &verr) {
			fields := make(map[string]any, len(verr.Fields))
			for k, v := range verr.Fields {
				fields[k] = v
			}
			return bill.Bill{}, response.ErrValidation.WithDetails(fields)
		}
		return bill.Bill{}, err
	}
	return b, nil
}

// unsavedBill reports a failed save after the credit was already charged.
// Credits are not refunded, so a retry spends another one.
func unsavedBill(usage quota.Snapshot, degraded bool) error {
	if degraded {
		return response.ErrStorageUnavailable
	}
	return response.ErrStorageUnavailable.
		WithMessage("The bill could not be saved. The credit for this attempt has been used.").
		WithDetails(map[string]any{
			"credit_spent": true,
			"credits":      usage,
		})
}

func (a *App) billError(ctx handler.Context, action string, err error) error {
	if errors.Is(err, bill.ErrNotFound) {
		return response.ErrNotFound.WithMessage("Bill not found")
	}
	return a.storageError(ctx, action, err)
}

// storageError logs a repository failure and hides it behind a retryable 503.
func (a *App) storageError(ctx handler.Context, action string, err error) error {
	a.logger.ErrorContext(ctx, "bill storage failed",
		logger.Component("app"),
		logger.Action(action),
		logger.Error(err),
	)
	return response.ErrStorageUnavailable
}
