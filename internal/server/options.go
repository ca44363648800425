package server

import (
	"errors"
	"log/slog"

	"github.com/northpeak/mcp-jobnimbus/internal/handles"
	"github.com/northpeak/mcp-jobnimbus/internal/instrumentation"
	"github.com/northpeak/mcp-jobnimbus/internal/jobnimbus"
	"github.com/northpeak/mcp-jobnimbus/internal/output"
)

// Option is a functional option for configuring ServerContext.
type Option func(*ServerContext) error

// WithClient sets the JobNimbus API client for the ServerContext.
func WithClient(client jobnimbus.Client) Option {
	return func(sc *ServerContext) error {
		if client == nil {
			return ErrMissingClient
		}
		sc.client = client
		return nil
	}
}

// WithStore sets the result handle store. Leaving the store unset disables
// handle storage; oversized responses are then returned truncated inline.
func WithStore(store *handles.Store) Option {
	return func(sc *ServerContext) error {
		sc.store = store
		return nil
	}
}

// WithLogger sets the logger for the ServerContext.
func WithLogger(logger *slog.Logger) Option {
	return func(sc *ServerContext) error {
		if logger == nil {
			return ErrMissingLogger
		}
		sc.logger = logger
		return nil
	}
}

// WithConfig sets the configuration for the ServerContext.
func WithConfig(config *Config) Option {
	return func(sc *ServerContext) error {
		if config == nil {
			return ErrMissingConfig
		}
		sc.config = config.Clone()
		return nil
	}
}

// WithOutputConfig sets the response shaping configuration.
// The config is validated; out-of-range limits are clamped to defaults.
func WithOutputConfig(cfg *output.Config) Option {
	return func(sc *ServerContext) error {
		if cfg == nil {
			return ErrMissingConfig
		}
		sc.outputCfg = cfg.Validate()
		return nil
	}
}

// WithServerName sets the server name in the configuration.
func WithServerName(name string) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		sc.config.ServerName = name
		return nil
	}
}

// WithVersion sets the server version in the configuration.
func WithVersion(version string) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		sc.config.Version = version
		return nil
	}
}

// WithDefaultInstance sets the JobNimbus instance used when tool calls do
// not name one.
func WithDefaultInstance(instance string) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		sc.config.DefaultInstance = instance
		return nil
	}
}

// WithNonDestructiveMode enables or disables non-destructive mode.
func WithNonDestructiveMode(enabled bool) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		sc.config.NonDestructiveMode = enabled
		return nil
	}
}

// WithInstrumentationProvider sets the OpenTelemetry instrumentation provider.
func WithInstrumentationProvider(provider *instrumentation.Provider) Option {
	return func(sc *ServerContext) error {
		sc.instrumentationProvider = provider
		return nil
	}
}

// Error definitions for ServerContext validation and operations.
var (
	ErrMissingClient  = errors.New("jobnimbus client is required")
	ErrMissingLogger  = errors.New("logger is required")
	ErrMissingConfig  = errors.New("configuration is required")
	ErrServerShutdown = errors.New("server context has been shutdown")
)
