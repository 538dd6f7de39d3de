// Package logger builds slog loggers and provides attribute helpers with
// consistent keys across the service.
//
//	log := logger.New(
//		logger.WithProduction("billforge"),
//		logger.WithContextExtractors(middleware.RequestIDExtractor),
//	)
//	log.InfoContext(ctx, "bill created", logger.BillID(b.ID), logger.UserID(b.UserID))
//
// Attribute helpers return an empty slog.Attr for nil or empty input, which
// slog drops from the output.
package logger
