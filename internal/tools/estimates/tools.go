// Package estimates implements the MCP tools for JobNimbus estimate records.
//
// Estimates are the heaviest JobNimbus entity: a single record can carry
// hundreds of line items. The single-record handler runs the record through
// the lazy array referencer so oversized embedded arrays come back as
// loadable references instead of inline payload.
package estimates

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/northpeak/mcp-jobnimbus/internal/server"
	"github.com/northpeak/mcp-jobnimbus/internal/tools"
)

// RegisterEstimateTools registers all estimate tools with the MCP server.
func RegisterEstimateTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getEstimatesOpts := []mcp.ToolOption{
		mcp.WithDescription("List estimates. Large result sets are returned as a shaped summary plus a result handle for get_full_response."),
	}
	getEstimatesOpts = append(getEstimatesOpts, tools.AddShapingParams()...)
	getEstimatesOpts = append(getEstimatesOpts,
		mcp.WithNumber("size",
			mcp.Description("Upstream page size (optional, API default if omitted)"),
		),
		mcp.WithNumber("from",
			mcp.Description("Upstream offset of the first record (optional)"),
		),
	)
	getEstimatesTool := mcp.NewTool("get_estimates", getEstimatesOpts...)
	s.AddTool(getEstimatesTool, tools.WrapWithInstrumentation("get_estimates", "estimates", handleGetEstimates, sc))

	getEstimateOpts := []mcp.ToolOption{
		mcp.WithDescription("Get a single estimate by jnid. Embedded arrays above the lazy threshold are returned as references loadable via get_full_response."),
		mcp.WithString("jnid",
			mcp.Required(),
			mcp.Description("The estimate's jnid"),
		),
	}
	getEstimateOpts = append(getEstimateOpts, tools.AddShapingParams()...)
	getEstimateTool := mcp.NewTool("get_estimate", getEstimateOpts...)
	s.AddTool(getEstimateTool, tools.WrapWithInstrumentation("get_estimate", "estimates", handleGetEstimate, sc))

	return nil
}
