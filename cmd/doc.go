// Package cmd provides the command-line interface for mcp-jobnimbus.
//
// This package implements a Cobra-based CLI with multiple subcommands:
//   - serve: Starts the MCP server (default behavior when no subcommand is provided)
//   - version: Displays the application version
//   - self-update: Updates the binary to the latest version from GitHub releases
//
// The CLI runs the serve command when no subcommand is specified, so the bare
// binary can be used directly as an MCP server entry in client configuration.
//
// Command Structure:
//
//	mcp-jobnimbus [flags]                 # Starts the MCP server (default)
//	mcp-jobnimbus serve [flags]           # Explicitly starts the MCP server
//	mcp-jobnimbus version                 # Shows version information
//	mcp-jobnimbus self-update             # Updates to latest release
//	mcp-jobnimbus help [command]          # Shows help information
//
// The serve command supports multiple transport options:
//   - stdio: Standard input/output (default) - for command-line integration
//   - sse: Server-Sent Events over HTTP - for web-based clients
//   - streamable-http: Streamable HTTP transport - for HTTP-based integration
//
// Transport Configuration Examples:
//
//	mcp-jobnimbus serve --transport stdio            # Default STDIO transport
//	mcp-jobnimbus serve --transport sse --http-addr :8080 --sse-endpoint /sse
//	mcp-jobnimbus serve --transport streamable-http --http-addr :9000 --http-endpoint /mcp
//
// The serve command also carries flags for the upstream JobNimbus client
// (API keys per instance, base URL), the response shaping pipeline (verbosity
// tiers, size thresholds, row caps) and the handle store backend (in-memory
// or Redis).
package cmd
