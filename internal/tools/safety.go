package tools

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/northpeak/mcp-jobnimbus/internal/server"
)

// CheckMutatingOperation verifies if a mutating operation is allowed given
// the current server configuration. Returns an error result if blocked, nil
// if allowed.
//
// This centralizes the non-destructive mode check to avoid code duplication
// across all tool handlers that create or modify CRM records.
func CheckMutatingOperation(sc *server.ServerContext, operation string) *mcp.CallToolResult {
	if !sc.Config().NonDestructiveMode {
		return nil
	}

	return mcp.NewToolResultError(fmt.Sprintf(
		"%s operations are not allowed in non-destructive mode (start the server with --non-destructive=false to enable)",
		cases.Title(language.English).String(operation),
	))
}
