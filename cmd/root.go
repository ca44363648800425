package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the mcp-jobnimbus application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mcp-jobnimbus",
	Short: "MCP server for JobNimbus CRM data",
	Long: `mcp-jobnimbus is a Model Context Protocol (MCP) server that exposes
JobNimbus CRM data (jobs, estimates and related records) as tools.

Every response runs through a shaping pipeline: field selection, verbosity
limiting, text truncation and size estimation. Results that would exceed the
response size budget are stored behind a result handle and returned as a
compact summary; the full data is retrievable with get_full_response.

When run without subcommands, it starts the MCP server (equivalent to
'mcp-jobnimbus serve').`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the
// application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
// It initializes and executes the root command, which in turn handles
// subcommands and flags. This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcp-jobnimbus version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		// Cobra itself usually prints the error. Exiting with a non-zero
		// status code indicates that an error occurred during execution.
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newServeCmd())
}
