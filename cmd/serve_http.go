package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/northpeak/mcp-jobnimbus/internal/instrumentation"
	"github.com/northpeak/mcp-jobnimbus/internal/server"
	"github.com/northpeak/mcp-jobnimbus/internal/server/middleware"
)

// runStreamableHTTPServer runs the server with Streamable HTTP transport
func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, addr, endpoint string, provider *instrumentation.Provider, sc *server.ServerContext, logger *slog.Logger) error {
	mux := http.NewServeMux()

	// Create Streamable HTTP handler
	mcpHandler := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(endpoint),
	)
	mux.Handle(endpoint, mcpHandler)

	// Add health check endpoints
	healthChecker := server.NewHealthChecker(sc)
	healthChecker.SetReady(true)
	healthChecker.RegisterHealthEndpoints(mux)

	// Expose Prometheus metrics when the prometheus exporter is active
	if promHandler := provider.PrometheusHandler(); promHandler != nil {
		mux.Handle(provider.Config().PrometheusEndpoint, promHandler)
	}

	logger.Info("streamable HTTP server starting",
		"addr", addr,
		"endpoint", endpoint,
		"health_endpoints", []string{"/healthz", "/readyz"})

	// Middleware: security headers outermost, request metrics inside
	var handler http.Handler = mux
	handler = middleware.HTTPMetrics(provider)(handler)
	handler = middleware.SecurityHeaders(middleware.SecurityHeadersConfig{})(handler)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		logger.Info("HTTP server stopped normally")
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
