// Package postgres stores usage ledger entries in the quota_ledger table.
//
// The schema ships as embedded goose migrations, applied with
// pg.Migrate(ctx, pool, cfg, postgres.Migrations()). Statements run inside
// the transaction carried by the context (see pg.WithTx) when there is one.
package postgres
