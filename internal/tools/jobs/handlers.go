package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/northpeak/mcp-jobnimbus/internal/jobnimbus"
	"github.com/northpeak/mcp-jobnimbus/internal/server"
	"github.com/northpeak/mcp-jobnimbus/internal/tools"
)

func handleGetJobs(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	opts, errResult := tools.ShapingOptions(args, "get_jobs", "jobs", sc)
	if errResult != nil {
		return errResult, nil
	}

	listOpts := jobnimbus.ListOptions{
		Size: tools.IntArg(args, "size", 0),
		From: tools.IntArg(args, "from", 0),
	}

	result, err := sc.Client().ListJobs(ctx, opts.Instance, listOpts)
	if err != nil {
		return tools.UpstreamErrorResult(sc, err, opts), nil
	}

	env := sc.Builder().Build(ctx, result.Results, opts)
	tools.RecordEnvelopeSize(ctx, sc, env)
	return tools.EnvelopeResult(env), nil
}

func handleGetJob(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	jnid, ok := args["jnid"].(string)
	if !ok || jnid == "" {
		return mcp.NewToolResultError("jnid parameter is required"), nil
	}

	opts, errResult := tools.ShapingOptions(args, "get_job", "jobs", sc)
	if errResult != nil {
		return errResult, nil
	}

	record, err := sc.Client().GetJob(ctx, opts.Instance, jnid)
	if err != nil {
		return tools.UpstreamErrorResult(sc, err, opts), nil
	}

	env := sc.Builder().Build(ctx, record, opts)
	tools.RecordEnvelopeSize(ctx, sc, env)
	return tools.EnvelopeResult(env), nil
}

func handleCreateJob(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	if blocked := tools.CheckMutatingOperation(sc, "create"); blocked != nil {
		return blocked, nil
	}

	args := request.GetArguments()

	recordJSON, ok := args["record"].(string)
	if !ok || recordJSON == "" {
		return mcp.NewToolResultError("record parameter is required"), nil
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(recordJSON), &payload); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("record must be a JSON object: %v", err)), nil
	}

	opts, errResult := tools.ShapingOptions(args, "create_job", "jobs", sc)
	if errResult != nil {
		return errResult, nil
	}

	created, err := sc.Client().CreateJob(ctx, opts.Instance, payload)
	if err != nil {
		return tools.UpstreamErrorResult(sc, err, opts), nil
	}

	env := sc.Builder().Build(ctx, created, opts)
	tools.RecordEnvelopeSize(ctx, sc, env)
	return tools.EnvelopeResult(env), nil
}
