// Package retrieval implements the handle fetch tools: get_full_response
// redeems a result handle issued by an earlier query, handle_info inspects
// one without loading its data.
package retrieval

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/northpeak/mcp-jobnimbus/internal/server"
	"github.com/northpeak/mcp-jobnimbus/internal/tools"
)

// RegisterRetrievalTools registers the handle fetch tools with the MCP server.
func RegisterRetrievalTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getFullOpts := []mcp.ToolOption{
		mcp.WithDescription("Retrieve the full stored result behind a result handle, optionally reshaped with new field selection or verbosity. Handles expire and are not renewable."),
		mcp.WithString("handle",
			mcp.Required(),
			mcp.Description("A result handle from an earlier response, e.g. jn:jobs:1729012345678:a1b2c3d4"),
		),
	}
	getFullOpts = append(getFullOpts, tools.AddShapingParams()...)
	getFullTool := mcp.NewTool("get_full_response", getFullOpts...)
	s.AddTool(getFullTool, tools.WrapWithInstrumentation("get_full_response", "handles", handleGetFullResponse, sc))

	infoOpts := []mcp.ToolOption{
		mcp.WithDescription("Inspect a result handle without loading its data: age, remaining TTL, stored size and originating tool."),
		mcp.WithString("handle",
			mcp.Required(),
			mcp.Description("The result handle to inspect"),
		),
		mcp.WithString("instance",
			mcp.Description("JobNimbus instance name (optional, defaults to the configured instance)"),
		),
	}
	infoTool := mcp.NewTool("handle_info", infoOpts...)
	s.AddTool(infoTool, tools.WrapWithInstrumentation("handle_info", "handles", handleHandleInfo, sc))

	return nil
}
