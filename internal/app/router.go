package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/billforge/core/handler"
	"github.com/dmitrymomot/billforge/core/health"
	"github.com/dmitrymomot/billforge/core/response"
	"github.com/dmitrymomot/billforge/middleware"
)

// Handler returns the HTTP handler serving the API, health probes and metrics.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	probes := handler.NewAdapter(handler.NewContext,
		handler.WithErrorHandler(response.ErrorHandler[handler.Context]),
	)
	r.Get("/live", probes.Handle(health.Liveness[handler.Context]))
	r.Get("/ready", probes.Handle(health.Readiness[handler.Context](a.logger, a.checks...)))
	r.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))

	api := handler.NewAdapter(handler.NewContext,
		handler.WithErrorHandler(response.JSONErrorHandlerWithLogger[handler.Context](a.logger)),
		handler.WithMiddleware(
			middleware.RequestID[handler.Context](),
			middleware.LoggingWithLogger[handler.Context](a.logger),
			middleware.SecurityHeaders[handler.Context](),
			middleware.BodyLimit[handler.Context](a.maxBody),
			middleware.Identity[handler.Context](a.tokens),
			middleware.LedgerExchange[handler.Context](),
		),
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/credits", api.Handle(a.getCredits))
		r.Post("/credits", api.Handle(a.consumeCredit))

		r.Get("/templates", api.Handle(a.listTemplates))
		r.Post("/render", api.Handle(a.renderPreview))

		r.Get("/bills", api.Handle(a.listBills))
		r.Post("/bills", api.Handle(a.createBill))
		r.Get("/bills/{id}", api.Handle(a.getBill))
		r.Put("/bills/{id}", api.Handle(a.updateBill))
		r.Delete("/bills/{id}", api.Handle(a.deleteBill))
		r.Get("/bills/{id}/render", api.Handle(a.renderBill))

		r.Get("/tools/qrcode", api.Handle(a.qrCode))
	})

	r.NotFound(api.Handle(func(handler.Context) handler.Response {
		return response.Error(response.ErrNotFound)
	}))
	r.MethodNotAllowed(api.Handle(func(handler.Context) handler.Response {
		return response.Error(response.ErrMethodNotAllowed)
	}))
	return r
}
