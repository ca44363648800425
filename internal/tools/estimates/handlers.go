package estimates

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/northpeak/mcp-jobnimbus/internal/jobnimbus"
	"github.com/northpeak/mcp-jobnimbus/internal/output"
	"github.com/northpeak/mcp-jobnimbus/internal/server"
	"github.com/northpeak/mcp-jobnimbus/internal/tools"
)

func handleGetEstimates(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	opts, errResult := tools.ShapingOptions(args, "get_estimates", "estimates", sc)
	if errResult != nil {
		return errResult, nil
	}

	listOpts := jobnimbus.ListOptions{
		Size: tools.IntArg(args, "size", 0),
		From: tools.IntArg(args, "from", 0),
	}

	result, err := sc.Client().ListEstimates(ctx, opts.Instance, listOpts)
	if err != nil {
		return tools.UpstreamErrorResult(sc, err, opts), nil
	}

	env := sc.Builder().Build(ctx, result.Results, opts)
	tools.RecordEnvelopeSize(ctx, sc, env)
	return tools.EnvelopeResult(env), nil
}

func handleGetEstimate(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	jnid, ok := args["jnid"].(string)
	if !ok || jnid == "" {
		return mcp.NewToolResultError("jnid parameter is required"), nil
	}

	opts, errResult := tools.ShapingOptions(args, "get_estimate", "estimates", sc)
	if errResult != nil {
		return errResult, nil
	}

	record, err := sc.Client().GetEstimate(ctx, opts.Instance, jnid)
	if err != nil {
		return tools.UpstreamErrorResult(sc, err, opts), nil
	}

	// Large embedded arrays become lazy references before the envelope
	// pipeline runs, so field selection and size accounting see the
	// reference objects rather than the raw line items.
	record = sc.Referencer().ProcessObject(ctx, record, jnid, output.ReferenceOptions{
		Instance: opts.Instance,
		ToolName: opts.ToolName,
	})

	env := sc.Builder().Build(ctx, record, opts)
	tools.RecordEnvelopeSize(ctx, sc, env)
	return tools.EnvelopeResult(env), nil
}
