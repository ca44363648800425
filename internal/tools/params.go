package tools

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/northpeak/mcp-jobnimbus/internal/output"
	"github.com/northpeak/mcp-jobnimbus/internal/server"
)

// AddShapingParams returns the tool options shared by every read tool:
// verbosity, field selection, the per-object field cap override and the
// instance selector.
//
// Usage in tool registration:
//
//	opts := []mcp.ToolOption{
//	    mcp.WithDescription("..."),
//	}
//	opts = append(opts, tools.AddShapingParams()...)
//	opts = append(opts, /* tool-specific params */...)
//	tool := mcp.NewTool("tool_name", opts...)
func AddShapingParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("verbosity",
			mcp.Description("Verbosity tier: summary (5 fields), compact (15, default), detailed (50), raw (unlimited)"),
		),
		mcp.WithString("fields",
			mcp.Description("Comma-separated field paths to retain, e.g. 'jnid,number,primary.name,items[].price'. Overrides verbosity-based field limiting."),
		),
		mcp.WithNumber("max_fields",
			mcp.Description("Override the verbosity tier's per-object field cap (optional)"),
		),
		mcp.WithString("instance",
			mcp.Description("JobNimbus instance name (optional, defaults to the configured instance)"),
		),
	}
}

// ParseFields splits and validates a comma-separated field path list.
// An empty input selects nothing (no field selection). Invalid paths are a
// caller input error.
func ParseFields(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	fields := make([]string, 0, len(parts))
	for _, part := range parts {
		path := strings.TrimSpace(part)
		if path == "" {
			continue
		}
		if !output.ValidFieldPath(path) {
			return nil, fmt.Errorf("invalid field path %q: expected identifiers separated by dots, with optional [] array markers", path)
		}
		fields = append(fields, path)
	}
	return fields, nil
}

// ShapingOptions extracts the shared shaping parameters from tool arguments.
// The returned error result is non-nil for invalid caller input and should be
// returned to the client as-is.
func ShapingOptions(args map[string]any, toolName, entity string, sc *server.ServerContext) (output.BuildOptions, *mcp.CallToolResult) {
	opts := output.BuildOptions{
		Entity:   entity,
		ToolName: toolName,
	}

	verbosityStr, _ := args["verbosity"].(string)
	opts.Verbosity = output.ParseVerbosity(verbosityStr)

	fieldsStr, _ := args["fields"].(string)
	fields, err := ParseFields(fieldsStr)
	if err != nil {
		return opts, mcp.NewToolResultError(err.Error())
	}
	opts.Fields = fields

	opts.MaxFields = IntArg(args, "max_fields", 0)

	instance, _ := args["instance"].(string)
	opts.Instance = sc.ResolveInstance(instance)

	return opts, nil
}

// IntArg extracts an integer argument. JSON numbers arrive as float64.
func IntArg(args map[string]any, name string, defaultValue int) int {
	if val, ok := args[name]; ok {
		if f, ok := val.(float64); ok {
			return int(f)
		}
	}
	return defaultValue
}
