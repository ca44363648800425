package instrumentation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T, detailed bool) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), detailed)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	byName := make(map[string]metricdata.Metrics)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			byName[m.Name] = m
		}
	}
	return byName
}

func counterValue(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestRecordToolCall(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordToolCall(ctx, "get_jobs", "jobs", "default", StatusSuccess, 120*time.Millisecond)
	m.RecordToolCall(ctx, "get_jobs", "jobs", "default", StatusError, 80*time.Millisecond)

	byName := collect(t, reader)
	calls, ok := byName["mcp_tool_calls_total"]
	require.True(t, ok)
	assert.Equal(t, int64(2), counterValue(t, calls))

	dur, ok := byName["mcp_tool_call_duration_seconds"]
	require.True(t, ok)
	hist, ok := dur.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.NotEmpty(t, hist.DataPoints)
}

func TestRecordToolCall_DetailedLabels(t *testing.T) {
	m, reader := newTestMetrics(t, true)
	ctx := context.Background()

	// Same tool and status but different instances: two series when detailed
	// labels are on.
	m.RecordToolCall(ctx, "get_jobs", "jobs", "acme", StatusSuccess, time.Millisecond)
	m.RecordToolCall(ctx, "get_jobs", "jobs", "globex", StatusSuccess, time.Millisecond)

	byName := collect(t, reader)
	sum := byName["mcp_tool_calls_total"].Data.(metricdata.Sum[int64])
	assert.Len(t, sum.DataPoints, 2)
}

func TestRecordResponseSize(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	ctx := context.Background()

	m.RecordResponseSize(ctx, "get_jobs", 4096, false)
	m.RecordResponseSize(ctx, "get_jobs", 26000, true)

	byName := collect(t, reader)
	hist := byName["mcp_response_size_bytes"].Data.(metricdata.Histogram[int64])
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)

	deferred, ok := byName["mcp_responses_deferred_total"]
	require.True(t, ok)
	assert.Equal(t, int64(1), counterValue(t, deferred))
}

func TestStoreCallback(t *testing.T) {
	m, reader := newTestMetrics(t, false)
	cb := NewStoreCallback(m)

	cb.OnStoreWrite(2048)
	cb.OnStoreHit()
	cb.OnStoreMiss()
	cb.OnStoreMiss()
	cb.OnSweep(5)
	cb.OnSweep(0) // no-op

	byName := collect(t, reader)
	assert.Equal(t, int64(9), counterValue(t, byName["handle_store_operations_total"]))
	assert.Equal(t, int64(2048), counterValue(t, byName["handle_store_bytes_written_total"]))
}

func TestStoreCallback_NilMetrics(t *testing.T) {
	cb := NewStoreCallback(nil)

	// Must not panic.
	cb.OnStoreHit()
	cb.OnStoreMiss()
	cb.OnStoreWrite(1)
	cb.OnSweep(1)
}

func TestMetrics_ZeroValueIsNoOp(t *testing.T) {
	m := &Metrics{}
	ctx := context.Background()

	// Must not panic when instrumentation was never initialized.
	m.RecordToolCall(ctx, "get_jobs", "jobs", "default", StatusSuccess, time.Second)
	m.RecordResponseSize(ctx, "get_jobs", 100, true)
	m.RecordStoreOperation(ctx, StoreOpHit, 1)
	m.RecordStoreWrite(ctx, 100)
}
