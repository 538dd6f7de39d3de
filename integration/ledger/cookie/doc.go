// Package cookie keeps the anonymous usage ledger in a signed browser cookie.
//
// The store has no server-side state. Each request binds its HTTP exchange to
// the context with WithExchange before the quota service runs:
//
//	ctx := cookie.WithExchange(r.Context(), w, r)
//	decision, err := quotaSvc.TryConsume(ctx, quota.Identity{Class: quota.ClassAnonymous})
//
// Values that fail signature or JSON checks are reported as
// quota.ErrMalformedEntry, so a tampered cookie restarts the window instead
// of failing the request.
package cookie
