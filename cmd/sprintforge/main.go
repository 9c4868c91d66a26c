// Package main provides the CLI entry point for sprintforge-go.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sprintforge/sprintforge-go/cmd/sprintforge/commands"
)

var version = "0.3.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sprintforge",
	Short: "SprintForge - Hybrid pattern combination engine for sprint planning",
	Long: `SprintForge fuses two independent sources of historical evidence into
confidence-scored sprint-planning recommendations:

  - Episodes: past orchestration decisions with recorded outcomes,
    retrieved by vector similarity
  - Chronicle: aggregate analytics over historically similar projects

It provides:
  - Episode quality validation and filtering
  - Decision pattern mining with per-pattern confidence
  - Source-weighted pattern fusion with agreement boosting
  - A local SQLite episode store with similarity search`,
	Version: version,
}

func init() {
	rootCmd.AddCommand(commands.ValidateCmd)
	rootCmd.AddCommand(commands.AnalyzeCmd)
	rootCmd.AddCommand(commands.FuseCmd)
	rootCmd.AddCommand(commands.EpisodesCmd)
}
