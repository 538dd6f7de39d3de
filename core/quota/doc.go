// Package quota implements the weekly credit quota that gates bill generation.
//
// Every identity owns a ledger entry: a generation count and the start of the
// current accounting window. Before each decision the window is reset when it
// has fully elapsed, then admission is allowed while the count stays below
// the limit configured for the identity's class.
//
// Usage:
//
//	svc, err := quota.NewService(
//		quota.WithLedger(quota.ClassAnonymous, cookieStore, quota.Policy{Limit: 2, WindowLength: quota.DefaultWindowLength}),
//		quota.WithLedger(quota.ClassAuthenticated, mongoStore, quota.Policy{Limit: 10, WindowLength: quota.DefaultWindowLength}),
//		quota.WithLogger(log),
//	)
//
//	decision, err := svc.TryConsume(ctx, quota.Identity{Class: quota.ClassAuthenticated, Key: userID})
//	if err != nil {
//		// storage failure, retryable
//	}
//	if !decision.Allowed {
//		// quota exhausted until decision.Usage.ResetsAt
//	}
//
// # Storage
//
// Ledger entries live behind the LedgerStore interface. Stores that can
// perform conditional writes implement ConditionalStore; the service then
// turns every read-modify-write into a compare-and-swap and repeats the whole
// cycle on conflict, so two concurrent requests can never both spend the last
// credit. Stores without conditional writes (a client-held cookie) fall back
// to plain writes.
//
// Exhausting the quota is a normal outcome reported through Decision, never an
// error. Store failures surface as *StorageError and are safe to retry.
// Entries a store cannot decode are treated as absent and overwritten.
package quota
