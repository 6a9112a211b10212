// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oss-pulse/leaderboard/internal/config"
	"github.com/oss-pulse/leaderboard/internal/gateway"
	"github.com/oss-pulse/leaderboard/internal/state"
	"github.com/oss-pulse/leaderboard/internal/usecase"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Fetches new activity and updates the leaderboard document",
	Long: `Resolves the configured repository set, incrementally fetches commit and
issue/PR activity for each repository, and merges the result into the
persisted leaderboard document. Interrupted runs resume where they left off.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Get the verbose flag from the root command to set up the logger.
		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := log.New(io.Discard, "", log.LstdFlags) // Default: discard all logs.
		if verbose {
			logger.SetOutput(os.Stderr) // If verbose, log to standard error.
		}

		cfg, err := config.NewLoader("LB").Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			os.Exit(1)
		}
		if v, _ := cmd.Flags().GetString("repos"); v != "" {
			cfg.ReposFile = v
		}
		if v, _ := cmd.Flags().GetString("cache"); v != "" {
			cfg.CacheFile = v
		}
		if v, _ := cmd.Flags().GetString("output"); v != "" {
			cfg.OutputFile = v
		}

		token := config.Token()
		switch {
		case token == "" && cfg.RequireToken:
			fmt.Fprintln(os.Stderr, "Error: PAT_TOKEN or GITHUB_TOKEN must be set (or set LB_REQUIRE_TOKEN=false to run unauthenticated).")
			os.Exit(1)
		case token == "":
			logger.Printf("[warn] no token set, running unauthenticated with reduced API quota")
		default:
			logger.Printf("authenticated access enabled")
		}

		repoList, err := config.LoadRepoList(cfg.ReposFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		gw, err := gateway.NewGitHubGateway(token, gateway.Options{
			PerPage:     cfg.PerPage,
			PageDelay:   cfg.PageDelay,
			BackoffMin:  cfg.BackoffMin,
			BackoffMax:  cfg.BackoffMax,
			HTTPTimeout: cfg.HTTPTimeout,
		}, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}

		store := state.NewStore(cfg.CacheFile, logger)
		harvester := usecase.NewHarvester(gw, store, cfg.OutputFile, cfg.OrgTTL, logger)

		sum, err := harvester.Run(ctx, repoList.Official, repoList.Unofficial)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Harvest finished with errors: %v\n", err)
		}
		logger.Printf("leaderboard now has %d users, mean %.1f / median %.1f commits each",
			sum.TotalUsers, sum.MeanCommitsPerUser, sum.MedianCommits)
		fmt.Printf("Processed %d repositories: %d contributors, %d commits, %d issues, %d pull requests\n",
			sum.Repositories, sum.Contributors, sum.Commits, sum.Issues, sum.PullRequests)
		if err != nil {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(harvestCmd)
	harvestCmd.Flags().String("repos", "", "Path to the repos file (default from LB_REPOS_FILE)")
	harvestCmd.Flags().String("cache", "", "Path to the cache file (default from LB_CACHE_FILE)")
	harvestCmd.Flags().String("output", "", "Path to the leaderboard output file (default from LB_OUTPUT_FILE)")
}
