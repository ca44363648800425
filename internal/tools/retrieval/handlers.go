package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/singleflight"

	"github.com/northpeak/mcp-jobnimbus/internal/handles"
	"github.com/northpeak/mcp-jobnimbus/internal/logging"
	"github.com/northpeak/mcp-jobnimbus/internal/output"
	"github.com/northpeak/mcp-jobnimbus/internal/server"
	"github.com/northpeak/mcp-jobnimbus/internal/tools"
)

// retrieveGroup collapses concurrent fetches of the same handle into one
// backend read. Keys are instance-scoped, matching the store's own keying.
var retrieveGroup singleflight.Group

func handleGetFullResponse(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	handle, _ := args["handle"].(string)
	instance, _ := args["instance"].(string)
	instance = sc.ResolveInstance(instance)

	verbosityStr, _ := args["verbosity"].(string)
	fieldsStr, _ := args["fields"].(string)
	maxFields := tools.IntArg(args, "max_fields", 0)

	fields, err := tools.ParseFields(fieldsStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !handles.Valid(handle) {
		return fetchError(sc, "get_full_response", fmt.Errorf(
			"invalid result handle %q: expected %s:{entity}:{timestamp}:{hash}", handle, handles.Namespace),
		), nil
	}

	stored, err := retrieve(ctx, sc, handle, instance)
	if err != nil {
		return notFoundError(sc, "get_full_response", handle, err), nil
	}

	data := stored.Data
	if len(fields) > 0 {
		data = output.SelectFields(data, fields)
	}

	appliedVerbosity := stored.Metadata.Verbosity
	if verbosityStr != "" || maxFields > 0 {
		verbosity := output.ParseVerbosity(verbosityStr)
		fieldCap := maxFields
		if fieldCap <= 0 {
			fieldCap = sc.OutputConfig().MaxFields(verbosity)
		}
		data = output.ApplyVerbosity(data, verbosity, fieldCap)
		appliedVerbosity = string(verbosity)
	}

	now := time.Now()
	summary := map[string]any{
		"data": data,
		"handle_info": map[string]any{
			"handle":             handle,
			"entity":             handles.Entity(handle),
			"tool_name":          stored.Metadata.ToolName,
			"age_sec":            ageSec(stored.Metadata.CreatedAt, now),
			"remaining_ttl_sec":  remainingSec(stored.Metadata.ExpiresAt, now),
			"stored_size_bytes":  stored.Metadata.SizeBytes,
			"original_verbosity": stored.Metadata.Verbosity,
			"applied_verbosity":  appliedVerbosity,
			"applied_fields":     fields,
		},
	}

	env := &output.Envelope{
		Status:  output.StatusOK,
		Summary: summary,
		Metadata: output.Metadata{
			Verbosity: appliedVerbosity,
			SizeBytes: output.CalculateSize(data),
			RowCount:  rowCount(data),
			ToolName:  "get_full_response",
			Timestamp: now.UTC().Format(time.RFC3339),
		},
	}

	tools.RecordEnvelopeSize(ctx, sc, env)
	return tools.EnvelopeResult(env), nil
}

func handleHandleInfo(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	handle, _ := args["handle"].(string)
	instance, _ := args["instance"].(string)
	instance = sc.ResolveInstance(instance)

	if !handles.Valid(handle) {
		return fetchError(sc, "handle_info", fmt.Errorf(
			"invalid result handle %q: expected %s:{entity}:{timestamp}:{hash}", handle, handles.Namespace),
		), nil
	}

	stored, err := retrieve(ctx, sc, handle, instance)
	if err != nil {
		return notFoundError(sc, "handle_info", handle, err), nil
	}

	now := time.Now()
	env := &output.Envelope{
		Status: output.StatusOK,
		Summary: map[string]any{
			"handle":            handle,
			"entity":            handles.Entity(handle),
			"tool_name":         stored.Metadata.ToolName,
			"verbosity":         stored.Metadata.Verbosity,
			"age_sec":           ageSec(stored.Metadata.CreatedAt, now),
			"remaining_ttl_sec": remainingSec(stored.Metadata.ExpiresAt, now),
			"stored_size_bytes": stored.Metadata.SizeBytes,
		},
		Metadata: output.Metadata{
			Verbosity: stored.Metadata.Verbosity,
			RowCount:  1,
			ToolName:  "handle_info",
			Timestamp: now.UTC().Format(time.RFC3339),
		},
	}
	return tools.EnvelopeResult(env), nil
}

// retrieve reads a stored result through the singleflight group so a burst
// of fetches for one handle hits the backend once.
func retrieve(ctx context.Context, sc *server.ServerContext, handle, instance string) (*handles.StoredResult, error) {
	if sc.Store() == nil {
		return nil, fmt.Errorf("handle store is disabled")
	}
	v, err, _ := retrieveGroup.Do(instance+":"+handle, func() (any, error) {
		return sc.Store().Retrieve(ctx, handle, instance)
	})
	if err != nil {
		return nil, err
	}
	return v.(*handles.StoredResult), nil
}

func fetchError(sc *server.ServerContext, toolName string, err error) *mcp.CallToolResult {
	return tools.EnvelopeResult(sc.Builder().BuildError(err, toolName, ""))
}

// notFoundError reports every failed retrieve as a miss. Backend failures
// are logged but never distinguished from genuine misses in the response:
// the caller's recourse is the same either way.
func notFoundError(sc *server.ServerContext, toolName, handle string, err error) *mcp.CallToolResult {
	if !errors.Is(err, handles.ErrNotFound) {
		sc.Logger().Warn("handle retrieve failed, reporting as not found",
			logging.Tool(toolName),
			logging.Handle(handle),
			logging.SanitizedErr(err))
	}
	return fetchError(sc, toolName, fmt.Errorf(
		"result handle %q not found or expired; re-run the original query (handles are not renewable)", handle))
}

func ageSec(createdAtMillis int64, now time.Time) int {
	age := now.UnixMilli() - createdAtMillis
	if age < 0 {
		return 0
	}
	return int(age / 1000)
}

func remainingSec(expiresAtMillis int64, now time.Time) int {
	remaining := expiresAtMillis - now.UnixMilli()
	if remaining < 0 {
		return 0
	}
	return int(remaining / 1000)
}

// rowCount mirrors the envelope metadata convention: array length for
// arrays, 1 otherwise.
func rowCount(data any) int {
	if data == nil {
		return 0
	}
	if arr, ok := data.([]any); ok {
		return len(arr)
	}
	return 1
}
