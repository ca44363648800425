package cmd

import (
	"fmt"
	"os"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// githubRepoSlug is the GitHub repository to pull releases from.
const githubRepoSlug = "northpeak/mcp-jobnimbus"

// newSelfUpdateCmd creates the Cobra command for updating the binary in place
// from the latest GitHub release.
func newSelfUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "self-update",
		Short: "Update mcp-jobnimbus to the latest version",
		Long: `Update mcp-jobnimbus in place by downloading the latest release
from GitHub and replacing the current binary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			version := rootCmd.Version
			if version == "" || version == "dev" {
				return fmt.Errorf("cannot self-update a development version (version: %q); install a released build first", version)
			}

			latest, found, err := selfupdate.DetectLatest(cmd.Context(), selfupdate.ParseSlug(githubRepoSlug))
			if err != nil {
				return fmt.Errorf("failed to detect latest release: %w", err)
			}
			if !found {
				return fmt.Errorf("no release found for %s", githubRepoSlug)
			}

			if latest.LessOrEqual(version) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Current version %s is the latest\n", version)
				return nil
			}

			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("could not locate executable path: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Updating %s -> %s\n", version, latest.Version())
			if err := selfupdate.UpdateTo(cmd.Context(), latest.AssetURL, latest.AssetName, exe); err != nil {
				return fmt.Errorf("update failed: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully updated to version %s\n", latest.Version())
			return nil
		},
	}
}
