// Package instrumentation provides OpenTelemetry metrics and tracing for the
// mcp-jobnimbus server.
//
// Instrumentation is disabled by default and enabled via
// INSTRUMENTATION_ENABLED=true, so the default deployment pays no overhead.
// A disabled Provider still hands out a usable no-op Metrics.
//
// Usage:
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	metrics := provider.Metrics()
//	metrics.RecordToolCall(ctx, "get_jobs", "jobs", "default", instrumentation.StatusSuccess, elapsed)
//
// Metrics cover tool invocations (count, duration), response shaping
// (inline size distribution, deferrals to the handle store) and handle store
// traffic (hits, misses, writes, sweep removals). The store metrics are fed
// through StoreCallback, which adapts Metrics to the store's callback
// interface without an import cycle.
//
// Exporters: prometheus (default, exposed by the serve command's metrics
// endpoint), otlp, and stdout for metrics; otlp and stdout for traces.
// High-cardinality labels (entity, instance) are off unless
// METRICS_DETAILED_LABELS=true.
package instrumentation
