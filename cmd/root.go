// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "A CLI tool that harvests contributor activity into a leaderboard.",
	Long: `leaderboard incrementally harvests commit, issue and pull-request
activity from a configured set of repositories and organizations, and
aggregates it per contributor into a persisted leaderboard document.
Runs are resumable: progress survives rate limiting and interruption.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}
