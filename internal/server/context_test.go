package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northpeak/mcp-jobnimbus/internal/handles"
	"github.com/northpeak/mcp-jobnimbus/internal/jobnimbus"
	"github.com/northpeak/mcp-jobnimbus/internal/output"
)

func newTestContext(t *testing.T, opts ...Option) *ServerContext {
	t.Helper()
	store := handles.NewStore(handles.NewMemoryBackend(), handles.Config{})
	allOpts := append([]Option{
		WithClient(&jobnimbus.Fake{}),
		WithStore(store),
	}, opts...)

	sc, err := NewServerContext(context.Background(), allOpts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestNewServerContext_Defaults(t *testing.T) {
	sc := newTestContext(t)

	assert.NotNil(t, sc.Client())
	assert.NotNil(t, sc.Store())
	assert.NotNil(t, sc.Builder())
	assert.NotNil(t, sc.Referencer())
	assert.NotNil(t, sc.Logger())
	assert.NotNil(t, sc.Metrics(), "metrics must be usable without a provider")

	cfg := sc.Config()
	assert.Equal(t, "mcp-jobnimbus", cfg.ServerName)
	assert.Equal(t, "default", cfg.DefaultInstance)
	assert.True(t, cfg.NonDestructiveMode)
}

func TestNewServerContext_RequiresClient(t *testing.T) {
	_, err := NewServerContext(context.Background())
	assert.ErrorIs(t, err, ErrMissingClient)
}

func TestNewServerContext_OutputConfigValidated(t *testing.T) {
	sc := newTestContext(t, WithOutputConfig(&output.Config{MaxRowsPerPage: 1000}))

	assert.Equal(t, output.AbsoluteMaxRowsPerPage, sc.OutputConfig().MaxRowsPerPage)
	assert.Equal(t, output.DefaultCompactMaxFields, sc.OutputConfig().CompactMaxFields)
}

func TestNewServerContext_OptionError(t *testing.T) {
	_, err := NewServerContext(context.Background(), WithClient(nil))
	assert.ErrorIs(t, err, ErrMissingClient)
}

func TestResolveInstance(t *testing.T) {
	sc := newTestContext(t, WithDefaultInstance("acme"))

	assert.Equal(t, "acme", sc.ResolveInstance(""))
	assert.Equal(t, "globex", sc.ResolveInstance("globex"))
}

func TestShutdown(t *testing.T) {
	store := handles.NewStore(handles.NewMemoryBackend(), handles.Config{})
	sc, err := NewServerContext(context.Background(),
		WithClient(&jobnimbus.Fake{}),
		WithStore(store),
		WithLogger(slog.Default()),
	)
	require.NoError(t, err)

	assert.False(t, sc.IsShutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())

	// Context is cancelled and a second shutdown is a no-op.
	assert.Error(t, sc.Context().Err())
	assert.NoError(t, sc.Shutdown())
}

func TestWithConfigClones(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.DefaultInstance = "acme"
	sc := newTestContext(t, WithConfig(cfg))

	cfg.DefaultInstance = "mutated"
	assert.Equal(t, "acme", sc.Config().DefaultInstance)
}

func TestHealthEndpoints(t *testing.T) {
	sc := newTestContext(t)
	checker := NewHealthChecker(sc)
	mux := http.NewServeMux()
	checker.RegisterHealthEndpoints(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Checks["handle_store"])
}

func TestHealthEndpoints_NotReady(t *testing.T) {
	sc := newTestContext(t)
	checker := NewHealthChecker(sc)
	checker.SetReady(false)

	rec := httptest.NewRecorder()
	checker.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthEndpoints_AfterShutdown(t *testing.T) {
	store := handles.NewStore(handles.NewMemoryBackend(), handles.Config{})
	sc, err := NewServerContext(context.Background(),
		WithClient(&jobnimbus.Fake{}),
		WithStore(store),
	)
	require.NoError(t, err)
	checker := NewHealthChecker(sc)
	require.NoError(t, sc.Shutdown())

	rec := httptest.NewRecorder()
	checker.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
