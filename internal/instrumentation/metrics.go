package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	attrTool      = "tool"
	attrStatus    = "status"
	attrEntity    = "entity"
	attrInstance  = "instance"
	attrOperation = "operation"
	attrMethod    = "method"
	attrPath      = "path"
)

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// HTTP transport metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// MCP tool metrics
	toolCallsTotal   metric.Int64Counter
	toolCallDuration metric.Float64Histogram

	// Response shaping metrics
	responseSizeBytes      metric.Int64Histogram
	responsesDeferredTotal metric.Int64Counter

	// Handle store metrics
	storeOperationsTotal metric.Int64Counter
	storeBytesWritten    metric.Int64Counter

	// detailedLabels controls whether high-cardinality labels (entity,
	// instance) are included in tool metrics
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.toolCallsTotal, err = meter.Int64Counter(
		"mcp_tool_calls_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_calls_total counter: %w", err)
	}

	m.toolCallDuration, err = meter.Float64Histogram(
		"mcp_tool_call_duration_seconds",
		metric.WithDescription("MCP tool invocation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_call_duration_seconds histogram: %w", err)
	}

	m.responseSizeBytes, err = meter.Int64Histogram(
		"mcp_response_size_bytes",
		metric.WithDescription("Serialized size of inline tool responses"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(512, 1024, 5120, 15360, 25600, 51200, 102400),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_response_size_bytes histogram: %w", err)
	}

	m.responsesDeferredTotal, err = meter.Int64Counter(
		"mcp_responses_deferred_total",
		metric.WithDescription("Total number of responses deferred to the handle store"),
		metric.WithUnit("{response}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_responses_deferred_total counter: %w", err)
	}

	m.storeOperationsTotal, err = meter.Int64Counter(
		"handle_store_operations_total",
		metric.WithDescription("Total number of handle store operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create handle_store_operations_total counter: %w", err)
	}

	m.storeBytesWritten, err = meter.Int64Counter(
		"handle_store_bytes_written_total",
		metric.WithDescription("Total bytes written to the handle store"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create handle_store_bytes_written_total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordToolCall records one tool invocation with its status and duration.
//
// CARDINALITY NOTE: When detailedLabels is false (default), only tool and
// status labels are recorded. When true, entity and instance are also
// included; with many instances this multiplies every series.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, entity, instance, status string, duration time.Duration) {
	if m.toolCallsTotal == nil || m.toolCallDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, tool),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels {
		attrs = append(attrs,
			attribute.String(attrEntity, entity),
			attribute.String(attrInstance, instance),
		)
	}

	m.toolCallsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolCallDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordResponseSize records the serialized size of an inline response and
// whether the full payload was deferred to the handle store.
func (m *Metrics) RecordResponseSize(ctx context.Context, tool string, sizeBytes int, deferred bool) {
	if m.responseSizeBytes == nil || m.responsesDeferredTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := metric.WithAttributes(attribute.String(attrTool, tool))
	m.responseSizeBytes.Record(ctx, int64(sizeBytes), attrs)
	if deferred {
		m.responsesDeferredTotal.Add(ctx, 1, attrs)
	}
}

// RecordStoreOperation records one handle store operation. op is one of the
// StoreOp constants; n is the affected entry count (1 except for sweeps).
func (m *Metrics) RecordStoreOperation(ctx context.Context, op string, n int) {
	if m.storeOperationsTotal == nil {
		return // Instrumentation not initialized
	}

	m.storeOperationsTotal.Add(ctx, int64(n),
		metric.WithAttributes(attribute.String(attrOperation, op)))
}

// RecordStoreWrite records one handle store write and its payload size.
func (m *Metrics) RecordStoreWrite(ctx context.Context, sizeBytes int) {
	if m.storeOperationsTotal == nil || m.storeBytesWritten == nil {
		return // Instrumentation not initialized
	}

	m.storeOperationsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String(attrOperation, StoreOpWrite)))
	m.storeBytesWritten.Add(ctx, int64(sizeBytes))
}

// StoreCallback adapts Metrics to the handle store's callback interface.
// The store runs outside any request, so records use the background context.
type StoreCallback struct {
	metrics *Metrics
}

// NewStoreCallback wraps metrics for use as a handle store callback.
// A nil metrics yields a usable no-op callback.
func NewStoreCallback(metrics *Metrics) *StoreCallback {
	return &StoreCallback{metrics: metrics}
}

func (c *StoreCallback) OnStoreHit() {
	if c.metrics != nil {
		c.metrics.RecordStoreOperation(context.Background(), StoreOpHit, 1)
	}
}

func (c *StoreCallback) OnStoreMiss() {
	if c.metrics != nil {
		c.metrics.RecordStoreOperation(context.Background(), StoreOpMiss, 1)
	}
}

func (c *StoreCallback) OnStoreWrite(sizeBytes int) {
	if c.metrics != nil {
		c.metrics.RecordStoreWrite(context.Background(), sizeBytes)
	}
}

func (c *StoreCallback) OnSweep(removed int) {
	if c.metrics != nil && removed > 0 {
		c.metrics.RecordStoreOperation(context.Background(), StoreOpSweep, removed)
	}
}
