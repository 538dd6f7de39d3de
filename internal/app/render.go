package app

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/billforge/core/bill"
	"github.com/dmitrymomot/billforge/core/handler"
	"github.com/dmitrymomot/billforge/core/logger"
	"github.com/dmitrymomot/billforge/core/registry"
	"github.com/dmitrymomot/billforge/core/response"
	"github.com/dmitrymomot/billforge/pkg/qrcode"
)

// FallbackHeader is set when the requested template was replaced by the
// type's default.
const FallbackHeader = "X-Template-Fallback"

func (a *App) listTemplates(ctx handler.Context) handler.Response {
	types := bill.Types()
	if s := ctx.Request().URL.Query().Get("type"); s != "" {
		t := bill.Type(s)
		if !t.Valid() {
			return response.Error(response.ErrBadRequest.WithMessage("Unknown bill type."))
		}
		types = []bill.Type{t}
	}

	out := make([]registry.Template[bill.Bill], 0)
	for _, t := range types {
		out = append(out, a.templates.Templates(string(t))...)
	}
	return response.JSON(map[string]any{"templates": out})
}

// renderPreview renders an unsaved bill. Previews never spend credits.
func (a *App) renderPreview(ctx handler.Context) handler.Response {
	b, err := a.decodeBill(ctx)
	if err != nil {
		return response.Error(err)
	}

	templateID := ctx.Request().URL.Query().Get("template")
	if templateID == "" {
		templateID = b.TemplateID
	}
	return a.render(ctx, b, templateID)
}

// renderBill renders a stored bill with the requested or saved template.
func (a *App) renderBill(ctx handler.Context) handler.Response {
	userID, err := owner(ctx)
	if err != nil {
		return response.Error(err)
	}

	b, err := a.bills.Get(ctx, userID, ctx.Param("id"))
	if err != nil {
		return response.Error(a.billError(ctx, "render_bill", err))
	}

	templateID := ctx.Request().URL.Query().Get("template")
	if templateID == "" {
		templateID = b.TemplateID
	}
	return a.render(ctx, b, templateID)
}

func (a *App) render(ctx handler.Context, b bill.Bill, templateID string) handler.Response {
	tpl, fellBack, err := a.templates.ResolveOrDefault(string(b.Type), templateID)
	if err != nil {
		if errors.Is(err, registry.ErrNoDefault) || errors.Is(err, registry.ErrTemplateNotFound) {
			return response.Error(response.ErrNotFound.WithMessage("No template available for this bill type."))
		}
		return response.Error(err)
	}

	if fellBack && templateID != "" {
		a.logger.WarnContext(ctx, "unknown template, using default",
			logger.Component("app"),
			logger.Template(string(b.Type), templateID),
			logger.Result(tpl.ID),
		)
	}

	resp := response.Templ(tpl.Render(b))
	return func(w http.ResponseWriter, r *http.Request) error {
		w.Header().Set(FallbackHeader, strconv.FormatBool(fellBack))
		w.Header().Set("X-Template-ID", tpl.ID)
		return resp(w, r)
	}
}

// qrCode renders text as a PNG QR code.
func (a *App) qrCode(ctx handler.Context) handler.Response {
	q := ctx.Request().URL.Query()

	size := qrcode.DefaultSize
	if s := q.Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return response.Error(response.ErrBadRequest.WithMessage("size must be an integer"))
		}
		size = n
	}

	png, err := qrcode.Generate(q.Get("text"), size)
	if err != nil {
		if errors.Is(err, qrcode.ErrEmptyContent) || errors.Is(err, qrcode.ErrContentTooLarge) {
			return response.Error(response.ErrBadRequest.WithMessage(err.Error()))
		}
		return response.Error(err)
	}
	return response.Bytes(png, "image/png")
}
