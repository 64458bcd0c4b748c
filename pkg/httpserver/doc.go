// Package httpserver runs an http.Handler with timeouts from the environment
// and graceful shutdown on context cancellation or SIGINT/SIGTERM.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//	    log.Error("server failed", logger.Error(err))
//	}
//
// LivenessHandler and ReadinessHandler back the /healthz and /readyz probes.
package httpserver
