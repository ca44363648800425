package tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/northpeak/mcp-jobnimbus/internal/instrumentation"
	"github.com/northpeak/mcp-jobnimbus/internal/server"
)

// WrapWithInstrumentation wraps a tool handler with a tool span and call
// metrics. The wrapper records timing, success/error status (MCP tool errors
// are returned inside the result, not as Go errors) and the tool's trace
// span. Without an instrumentation provider the handler runs bare.
func WrapWithInstrumentation(
	toolName, entity string,
	handler ToolHandler,
	sc *server.ServerContext,
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		provider := sc.InstrumentationProvider()
		if provider == nil || !provider.Enabled() {
			return handler(ctx, request, sc)
		}

		args := request.GetArguments()
		instance, _ := args["instance"].(string)
		instance = sc.ResolveInstance(instance)

		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		defer span.End()

		start := time.Now()
		result, err := handler(ctx, request, sc)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
		default:
			instrumentation.SetSpanSuccess(span)
		}

		provider.Metrics().RecordToolCall(ctx, toolName, entity, instance, status, duration)

		return result, err
	}
}
