// Package jobs implements the MCP tools for JobNimbus job records.
package jobs

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/northpeak/mcp-jobnimbus/internal/server"
	"github.com/northpeak/mcp-jobnimbus/internal/tools"
)

// RegisterJobTools registers all job tools with the MCP server.
func RegisterJobTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getJobsOpts := []mcp.ToolOption{
		mcp.WithDescription("List jobs. Large result sets are returned as a shaped summary plus a result handle for get_full_response."),
	}
	getJobsOpts = append(getJobsOpts, tools.AddShapingParams()...)
	getJobsOpts = append(getJobsOpts,
		mcp.WithNumber("size",
			mcp.Description("Upstream page size (optional, API default if omitted)"),
		),
		mcp.WithNumber("from",
			mcp.Description("Upstream offset of the first record (optional)"),
		),
	)
	getJobsTool := mcp.NewTool("get_jobs", getJobsOpts...)
	s.AddTool(getJobsTool, tools.WrapWithInstrumentation("get_jobs", "jobs", handleGetJobs, sc))

	getJobOpts := []mcp.ToolOption{
		mcp.WithDescription("Get a single job by jnid."),
		mcp.WithString("jnid",
			mcp.Required(),
			mcp.Description("The job's jnid"),
		),
	}
	getJobOpts = append(getJobOpts, tools.AddShapingParams()...)
	getJobTool := mcp.NewTool("get_job", getJobOpts...)
	s.AddTool(getJobTool, tools.WrapWithInstrumentation("get_job", "jobs", handleGetJob, sc))

	createJobOpts := []mcp.ToolOption{
		mcp.WithDescription("Create a job. Blocked in non-destructive mode."),
		mcp.WithString("record",
			mcp.Required(),
			mcp.Description("The job record to create, as a JSON object"),
		),
	}
	createJobOpts = append(createJobOpts, tools.AddShapingParams()...)
	createJobTool := mcp.NewTool("create_job", createJobOpts...)
	s.AddTool(createJobTool, tools.WrapWithInstrumentation("create_job", "jobs", handleCreateJob, sc))

	return nil
}
