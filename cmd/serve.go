package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/northpeak/mcp-jobnimbus/internal/handles"
	"github.com/northpeak/mcp-jobnimbus/internal/instrumentation"
	"github.com/northpeak/mcp-jobnimbus/internal/jobnimbus"
	"github.com/northpeak/mcp-jobnimbus/internal/output"
	"github.com/northpeak/mcp-jobnimbus/internal/server"
	"github.com/northpeak/mcp-jobnimbus/internal/tools/estimates"
	"github.com/northpeak/mcp-jobnimbus/internal/tools/jobs"
	"github.com/northpeak/mcp-jobnimbus/internal/tools/retrieval"
)

// Transport type constants for the MCP server.
const (
	transportStdio          = "stdio"
	transportSSE            = "sse"
	transportStreamableHTTP = "streamable-http"
)

// Handle store backend constants.
const (
	storeBackendMemory = "memory"
	storeBackendRedis  = "redis"
)

// newServeCmd creates the Cobra command for starting the MCP server.
func newServeCmd() *cobra.Command {
	var (
		config  ServeConfig
		apiKeys []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP JobNimbus server",
		Long: `Start the MCP JobNimbus server to expose CRM data (jobs, estimates
and related records) via the Model Context Protocol.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - sse: Server-Sent Events over HTTP
  - streamable-http: Streamable HTTP transport

API keys:
  Instances are named JobNimbus accounts, each authenticated by its own API
  key. Keys come from repeated --api-key instance=key flags or from the
  environment: JOBNIMBUS_API_KEY for the default instance and
  JOBNIMBUS_API_KEY_<INSTANCE> for named instances.

Handle store:
  Oversized results are parked behind result handles. The store backend is
  in-memory by default; --store-backend redis shares handles across replicas.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := parseAPIKeyFlags(apiKeys, config.DefaultInstance)
			if err != nil {
				return err
			}
			loadAPIKeysFromEnv(keys, config.DefaultInstance)
			if len(keys) == 0 {
				return fmt.Errorf("no JobNimbus API keys configured: pass --api-key or set %s", envAPIKeyPrefix)
			}
			config.APIKeys = keys

			if cmd.Flags().Changed("redis-password") {
				fmt.Fprintln(cmd.ErrOrStderr(), "WARNING: Redis password provided via CLI flag may be visible in process listings (ps aux); prefer the REDIS_PASSWORD environment variable")
			}
			if !cmd.Flags().Changed("redis-password") {
				config.RedisPassword = os.Getenv("REDIS_PASSWORD")
			}

			return runServe(config)
		},
	}

	// Safety and logging flags
	cmd.Flags().BoolVar(&config.NonDestructiveMode, "non-destructive", true, "Block tools that create or modify CRM records (default: true)")
	cmd.Flags().StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, or error")
	cmd.Flags().StringVar(&config.LogFormat, "log-format", "json", "Log format: json or text")

	// Transport flags
	cmd.Flags().StringVar(&config.Transport, "transport", transportStdio, "Transport type: stdio, sse, or streamable-http")
	cmd.Flags().StringVar(&config.HTTPAddr, "http-addr", ":8080", "HTTP server address (for sse and streamable-http transports)")
	cmd.Flags().StringVar(&config.SSEEndpoint, "sse-endpoint", "/sse", "SSE endpoint path (for sse transport)")
	cmd.Flags().StringVar(&config.MessageEndpoint, "message-endpoint", "/message", "Message endpoint path (for sse transport)")
	cmd.Flags().StringVar(&config.HTTPEndpoint, "http-endpoint", "/mcp", "HTTP endpoint path (for streamable-http transport)")

	// Upstream client flags
	cmd.Flags().StringVar(&config.BaseURL, "base-url", jobnimbus.DefaultBaseURL, "JobNimbus API base URL")
	cmd.Flags().StringVar(&config.DefaultInstance, "default-instance", "default", "Instance used when a tool call does not name one")
	cmd.Flags().StringArrayVar(&apiKeys, "api-key", nil, "JobNimbus API key as instance=key; repeatable (can also be set via JOBNIMBUS_API_KEY env vars)")

	// Response shaping flags
	cmd.Flags().IntVar(&config.SummaryMaxFields, "summary-max-fields", output.DefaultSummaryMaxFields, "Field cap per object at the summary verbosity tier")
	cmd.Flags().IntVar(&config.CompactMaxFields, "compact-max-fields", output.DefaultCompactMaxFields, "Field cap per object at the compact verbosity tier")
	cmd.Flags().IntVar(&config.DetailedMaxFields, "detailed-max-fields", output.DefaultDetailedMaxFields, "Field cap per object at the detailed verbosity tier")
	cmd.Flags().IntVar(&config.WarnSizeKB, "warn-size-kb", output.DefaultWarnSizeKB, "Soft response size threshold in KB (logs a warning)")
	cmd.Flags().IntVar(&config.MaxResponseSizeKB, "max-response-size-kb", output.DefaultMaxResponseSizeKB, "Hard response size threshold in KB (defers full data to a handle)")
	cmd.Flags().IntVar(&config.MaxRowsPerPage, "max-rows-per-page", output.DefaultMaxRowsPerPage, "Maximum array rows returned inline per response")
	cmd.Flags().IntVar(&config.MaxTextFieldLength, "max-text-field-length", output.DefaultMaxTextFieldLength, "Maximum length of string fields before truncation")
	cmd.Flags().IntVar(&config.LazyThreshold, "lazy-threshold", output.DefaultLazyThreshold, "Array length above which nested arrays become lazy references")
	cmd.Flags().IntVar(&config.LazyPreviewCount, "lazy-preview-count", output.DefaultLazyPreviewCount, "Preview items embedded in a lazy array reference")

	// Handle store flags
	cmd.Flags().StringVar(&config.StoreBackend, "store-backend", storeBackendMemory, "Handle store backend: memory or redis")
	cmd.Flags().StringVar(&config.RedisAddr, "redis-addr", "localhost:6379", "Redis server address (for the redis store backend)")
	cmd.Flags().StringVar(&config.RedisPassword, "redis-password", "", "Redis password (can also be set via REDIS_PASSWORD env var)")
	cmd.Flags().IntVar(&config.RedisDB, "redis-db", 0, "Redis database number")
	cmd.Flags().DurationVar(&config.HandleTTL, "handle-ttl", handles.DefaultTTL, "Lifetime of stored result handles")
	cmd.Flags().DurationVar(&config.CleanupInterval, "cleanup-interval", handles.DefaultCleanupInterval, "Period of the expired-handle sweep")

	return cmd
}

// runServe contains the main server logic with support for multiple transports.
func runServe(config ServeConfig) error {
	logger := newLogger(config.LogLevel, config.LogFormat)

	// Setup graceful shutdown - listen for both SIGINT and SIGTERM
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize OpenTelemetry instrumentation provider
	instrumentationConfig := instrumentation.DefaultConfig()
	instrumentationConfig.ServiceVersion = rootCmd.Version
	instrumentationProvider, err := instrumentation.NewProvider(shutdownCtx, instrumentationConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if shutdownErr := instrumentationProvider.Shutdown(context.Background()); shutdownErr != nil {
			logger.Error("instrumentation shutdown failed", "error", shutdownErr)
		}
	}()

	if instrumentationProvider.Enabled() {
		logger.Info("opentelemetry instrumentation enabled",
			"metrics_exporter", instrumentationConfig.MetricsExporter,
			"tracing_exporter", instrumentationConfig.TracingExporter)
	}

	// Create the upstream JobNimbus client
	client := jobnimbus.NewClient(config.BaseURL, config.APIKeys, logger)

	// Create the handle store with the selected backend
	backend, err := newStoreBackend(shutdownCtx, config)
	if err != nil {
		return err
	}
	store := handles.NewStore(backend, handles.Config{
		TTL:             config.HandleTTL,
		CleanupInterval: config.CleanupInterval,
		Metrics:         instrumentation.NewStoreCallback(instrumentationProvider.Metrics()),
		Logger:          logger,
	})

	outputConfig := output.DefaultConfig()
	outputConfig.SummaryMaxFields = config.SummaryMaxFields
	outputConfig.CompactMaxFields = config.CompactMaxFields
	outputConfig.DetailedMaxFields = config.DetailedMaxFields
	outputConfig.WarnSizeKB = config.WarnSizeKB
	outputConfig.MaxResponseSizeKB = config.MaxResponseSizeKB
	outputConfig.MaxRowsPerPage = config.MaxRowsPerPage
	outputConfig.MaxTextFieldLength = config.MaxTextFieldLength
	outputConfig.LazyThreshold = config.LazyThreshold
	outputConfig.LazyPreviewCount = config.LazyPreviewCount
	outputConfig.HandleTTL = config.HandleTTL

	serverContext, err := server.NewServerContext(shutdownCtx,
		server.WithClient(client),
		server.WithStore(store),
		server.WithLogger(logger),
		server.WithOutputConfig(outputConfig),
		server.WithVersion(rootCmd.Version),
		server.WithDefaultInstance(config.DefaultInstance),
		server.WithNonDestructiveMode(config.NonDestructiveMode),
		server.WithInstrumentationProvider(instrumentationProvider),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("server context shutdown failed", "error", err)
		}
	}()

	logger.Info("server context ready",
		"instances", client.Instances(),
		"default_instance", config.DefaultInstance,
		"non_destructive", config.NonDestructiveMode,
		"store_backend", config.StoreBackend)

	// Create MCP server
	mcpSrv := mcpserver.NewMCPServer("mcp-jobnimbus", rootCmd.Version,
		mcpserver.WithToolCapabilities(true),
	)

	// Register all tool categories
	if err := jobs.RegisterJobTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register job tools: %w", err)
	}
	if err := estimates.RegisterEstimateTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register estimate tools: %w", err)
	}
	if err := retrieval.RegisterRetrievalTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register retrieval tools: %w", err)
	}

	// Start the appropriate server based on transport type
	switch config.Transport {
	case transportStdio:
		// No startup message for stdio mode: stdout carries MCP traffic.
		return runStdioServer(mcpSrv)
	case transportSSE:
		return runSSEServer(shutdownCtx, mcpSrv, config.HTTPAddr, config.SSEEndpoint, config.MessageEndpoint, logger)
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, config.HTTPAddr, config.HTTPEndpoint, instrumentationProvider, serverContext, logger)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, sse, streamable-http)", config.Transport)
	}
}

// newStoreBackend builds the handle store backend named by the config.
func newStoreBackend(ctx context.Context, config ServeConfig) (handles.Backend, error) {
	switch config.StoreBackend {
	case storeBackendMemory:
		return handles.NewMemoryBackend(), nil
	case storeBackendRedis:
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		backend, err := handles.NewRedisBackend(connectCtx, config.RedisAddr, config.RedisPassword, config.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis store backend: %w", err)
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s (supported: memory, redis)", config.StoreBackend)
	}
}
