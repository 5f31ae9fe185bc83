// Package commands holds the CLI surface of the pipeline.
package commands

import (
	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd represents the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "tigerboard",
	Short: "Dragon-tiger board data pipeline",
	Long: `Daily-batch market data pipeline for the dragon-tiger leaderboard.

Fetches daily records for every tracked instrument through the
provider chain, then computes the asset and user leaderboards.

Usage:
  go run ./cmd/tigerboard [command]

Examples:
  go run ./cmd/tigerboard api
  go run ./cmd/tigerboard update --force
  go run ./cmd/tigerboard ranking --date 2026-08-28
  go run ./cmd/tigerboard scheduler`,
}

// Execute runs the CLI. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
