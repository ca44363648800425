package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/northpeak/mcp-jobnimbus/internal/output"
)

// EnvelopeResult serializes a response envelope into an MCP tool result.
// Error envelopes still serialize as text results: the envelope's status
// field is the contract, not the MCP error flag.
func EnvelopeResult(env *output.Envelope) *mcp.CallToolResult {
	data, err := json.Marshal(env)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to serialize response envelope: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}
