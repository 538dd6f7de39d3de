// Package mongo connects to MongoDB with retries and exposes a health check.
//
//	db, err := mongo.NewWithDatabase(ctx, cfg, "billforge")
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
// Connection attempts are retried RETRY_ATTEMPTS times, RETRY_INTERVAL apart,
// and each attempt is verified with a ping against the primary.
package mongo
