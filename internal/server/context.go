package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/northpeak/mcp-jobnimbus/internal/handles"
	"github.com/northpeak/mcp-jobnimbus/internal/instrumentation"
	"github.com/northpeak/mcp-jobnimbus/internal/jobnimbus"
	"github.com/northpeak/mcp-jobnimbus/internal/output"
)

// ServerContext encapsulates all dependencies needed by the MCP server
// and provides a clean abstraction for dependency injection and lifecycle
// management.
type ServerContext struct {
	// Core dependencies
	client    jobnimbus.Client
	store     *handles.Store
	outputCfg *output.Config
	logger    *slog.Logger
	config    *Config

	// Derived from the core dependencies after options are applied
	builder    *output.Builder
	referencer *output.LazyReferencer

	// Observability
	instrumentationProvider *instrumentation.Provider

	// Context management
	ctx    context.Context
	cancel context.CancelFunc

	// Lifecycle management
	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new ServerContext with default values.
// Use the provided functional options to customize the context.
func NewServerContext(ctx context.Context, opts ...Option) (*ServerContext, error) {
	serverCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:       serverCtx,
		cancel:    cancel,
		config:    NewDefaultConfig(),
		outputCfg: output.DefaultConfig(),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(sc); err != nil {
			cancel()
			return nil, err
		}
	}

	if err := sc.validate(); err != nil {
		cancel()
		return nil, err
	}

	sc.builder = output.NewBuilder(sc.outputCfg, sc.store, sc.logger)
	sc.referencer = output.NewLazyReferencer(sc.store, sc.outputCfg, sc.logger)

	return sc, nil
}

// Context returns the server context for cancellation and deadlines.
func (sc *ServerContext) Context() context.Context {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.ctx
}

// Client returns the JobNimbus API client.
func (sc *ServerContext) Client() jobnimbus.Client {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.client
}

// Store returns the result handle store. May be nil when handle storage is
// disabled; the response builder degrades to inline-only responses then.
func (sc *ServerContext) Store() *handles.Store {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.store
}

// Builder returns the response builder.
func (sc *ServerContext) Builder() *output.Builder {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.builder
}

// Referencer returns the lazy array referencer.
func (sc *ServerContext) Referencer() *output.LazyReferencer {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.referencer
}

// OutputConfig returns the response shaping configuration.
func (sc *ServerContext) OutputConfig() *output.Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.outputCfg
}

// Logger returns the logger.
func (sc *ServerContext) Logger() *slog.Logger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.logger
}

// Config returns the server configuration.
func (sc *ServerContext) Config() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config
}

// InstrumentationProvider returns the instrumentation provider, or nil when
// observability is not configured.
func (sc *ServerContext) InstrumentationProvider() *instrumentation.Provider {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.instrumentationProvider
}

// Metrics returns the metrics recording surface. Never nil: without a
// provider a no-op Metrics is returned.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	if sc.instrumentationProvider == nil {
		return &instrumentation.Metrics{}
	}
	return sc.instrumentationProvider.Metrics()
}

// ResolveInstance maps a caller-supplied instance name to the instance used
// for the request: empty means the configured default.
func (sc *ServerContext) ResolveInstance(instance string) string {
	if instance != "" {
		return instance
	}
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.DefaultInstance
}

// Shutdown gracefully shuts down the server context: the handle store's
// sweep loop and backend are closed and the context is cancelled.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.logger.Info("shutting down server context")

	var err error
	if sc.store != nil {
		err = sc.store.Close()
	}

	if sc.cancel != nil {
		sc.cancel()
	}
	sc.shutdown = true

	sc.logger.Info("server context shutdown complete")
	return err
}

// IsShutdown returns true if the server context has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// validate ensures all required dependencies are set.
func (sc *ServerContext) validate() error {
	if sc.client == nil {
		return ErrMissingClient
	}
	if sc.logger == nil {
		return ErrMissingLogger
	}
	if sc.config == nil {
		return ErrMissingConfig
	}
	return nil
}

// Config holds the server configuration.
type Config struct {
	// Server settings
	ServerName string `json:"serverName"`
	Version    string `json:"version"`

	// DefaultInstance is the JobNimbus instance used when a tool call does
	// not name one.
	DefaultInstance string `json:"defaultInstance"`

	// Non-destructive mode blocks tools that create or modify CRM records.
	NonDestructiveMode bool `json:"nonDestructiveMode"`

	// Logging settings
	LogLevel  string `json:"logLevel"`
	LogFormat string `json:"logFormat"`
}

// NewDefaultConfig creates a configuration with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		ServerName:         "mcp-jobnimbus",
		Version:            "0.1.0",
		DefaultInstance:    "default",
		NonDestructiveMode: true,
		LogLevel:           "info",
		LogFormat:          "json",
	}
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
