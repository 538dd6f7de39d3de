// Package server runs an http.Handler with graceful shutdown.
//
//	srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	eg.Go(srv.Run(ctx, router))
//
// Run returns a function for errgroup: it serves until the context is
// canceled, then drains in-flight requests within the shutdown timeout.
package server
