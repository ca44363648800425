package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// envAPIKeyPrefix names environment variables carrying per-instance API keys:
// JOBNIMBUS_API_KEY_<INSTANCE>=<key>. The bare JOBNIMBUS_API_KEY form keys
// the default instance.
const envAPIKeyPrefix = "JOBNIMBUS_API_KEY"

// ServeConfig holds all configuration for the serve command.
type ServeConfig struct {
	// Transport settings
	Transport string
	HTTPAddr  string

	// Endpoint paths
	SSEEndpoint     string
	MessageEndpoint string
	HTTPEndpoint    string

	// Upstream JobNimbus client settings
	BaseURL         string
	DefaultInstance string
	APIKeys         map[string]string

	// Safety and logging
	NonDestructiveMode bool
	LogLevel           string
	LogFormat          string

	// Response shaping settings
	SummaryMaxFields   int
	CompactMaxFields   int
	DetailedMaxFields  int
	WarnSizeKB         int
	MaxResponseSizeKB  int
	MaxRowsPerPage     int
	MaxTextFieldLength int
	LazyThreshold      int
	LazyPreviewCount   int

	// Handle store settings
	StoreBackend    string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	HandleTTL       time.Duration
	CleanupInterval time.Duration
}

// parseAPIKeyFlags parses repeated --api-key values of the form
// "instance=key" into a map. A value without "=" keys the default instance.
func parseAPIKeyFlags(values []string, defaultInstance string) (map[string]string, error) {
	keys := make(map[string]string, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		name, key, found := strings.Cut(v, "=")
		if !found {
			keys[defaultInstance] = v
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" || key == "" {
			return nil, fmt.Errorf("invalid --api-key value %q: expected instance=key", v)
		}
		keys[name] = key
	}
	return keys, nil
}

// loadAPIKeysFromEnv merges API keys from the environment into keys without
// overriding values already set by flags. Instance names are lowercased.
func loadAPIKeysFromEnv(keys map[string]string, defaultInstance string) {
	for _, entry := range os.Environ() {
		name, value, found := strings.Cut(entry, "=")
		if !found || value == "" || !strings.HasPrefix(name, envAPIKeyPrefix) {
			continue
		}
		instance := defaultInstance
		if suffix := strings.TrimPrefix(name, envAPIKeyPrefix); suffix != "" {
			if !strings.HasPrefix(suffix, "_") {
				continue
			}
			instance = strings.ToLower(strings.TrimPrefix(suffix, "_"))
			if instance == "" {
				continue
			}
		}
		if _, set := keys[instance]; !set {
			keys[instance] = value
		}
	}
}

// newLogger builds the process logger. Logs always go to stderr so stdio
// transport MCP traffic on stdout stays clean.
func newLogger(level, format string) *slog.Logger {
	var slogLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: slogLevel}
	var handler slog.Handler
	if strings.ToLower(format) == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
