// Package server constructs and starts the NeonChat HTTP service with helpers
// that apply sensible production defaults.
package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// CreateServer creates and configures an HTTP server with the specified
// address and handler. It sets reasonable timeout values for production use.
func CreateServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
}

// StartServer starts the HTTP server and begins listening for connections.
// It blocks until the server stops.
func StartServer(srv *http.Server, log *zap.Logger) error {
	log.Info("server listening", zap.String("addr", srv.Addr))
	return srv.ListenAndServe()
}

// ShutdownServer gracefully shuts down the HTTP server without interrupting
// active connections, waiting up to timeout for them to close.
func ShutdownServer(srv *http.Server, timeout time.Duration, log *zap.Logger) error {
	log.Info("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("http server shutdown error", zap.Error(err))
		return err
	}

	log.Info("http server shutdown completed")
	return nil
}
