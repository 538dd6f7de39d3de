// Package health provides liveness and readiness handlers.
//
//	r.Get("/live", a.Handle(health.Liveness[handler.Context]))
//	r.Get("/ready", a.Handle(health.Readiness[handler.Context](log,
//		health.Check{Name: "mongo", Fn: mongo.Healthcheck(client)},
//	)))
package health
