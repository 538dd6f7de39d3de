// Package pg connects to PostgreSQL through a pgx pool, applies goose
// migrations and classifies common driver errors.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, migrations.FS); err != nil {
//		return err
//	}
//
// Repositories pick up a transaction started by the caller with WithTx and
// TxFromContext, so several writes can share one transaction.
package pg
