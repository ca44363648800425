package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/northpeak/mcp-jobnimbus/internal/jobnimbus"
	"github.com/northpeak/mcp-jobnimbus/internal/output"
	"github.com/northpeak/mcp-jobnimbus/internal/server"
)

// UpstreamErrorResult maps client failures onto error envelopes with
// actionable messages. Sentinel errors get specific wording; everything else
// passes through as-is.
func UpstreamErrorResult(sc *server.ServerContext, err error, opts output.BuildOptions) *mcp.CallToolResult {
	switch {
	case errors.Is(err, jobnimbus.ErrUnknownInstance):
		err = fmt.Errorf("unknown instance %q: no API key configured for it", opts.Instance)
	case errors.Is(err, jobnimbus.ErrNotFound):
		err = fmt.Errorf("record not found in instance %q", opts.Instance)
	case errors.Is(err, jobnimbus.ErrUnauthorized):
		err = fmt.Errorf("API key for instance %q was rejected by JobNimbus", opts.Instance)
	}
	return EnvelopeResult(sc.Builder().BuildError(err, opts.ToolName, opts.Verbosity))
}

// RecordEnvelopeSize reports the shaped response size and whether the full
// result was deferred behind a handle.
func RecordEnvelopeSize(ctx context.Context, sc *server.ServerContext, env *output.Envelope) {
	sc.Metrics().RecordResponseSize(ctx, env.Metadata.ToolName, env.Metadata.SizeBytes, env.ResultHandle != "")
}
