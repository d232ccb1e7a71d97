// Package httpserver provides the daemon's HTTP server with graceful
// shutdown and health probe handlers.
//
//	srv := httpserver.New(cfg, httpserver.WithLogger(log))
//	g.Go(httpserver.Run(ctx, srv, router))
package httpserver
