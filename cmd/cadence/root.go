package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cadence",
	Short: "Confidence-gated sprint analysis pipeline",
	Long: `Cadence analyzes sprint plans before work starts: it scores each
task's readiness, decides between incremental and full re-analysis,
assigns execution capabilities, and validates the dependency graph.

Core capabilities:
- Scores task confidence from declared fields, criteria, and context
- Routes low-confidence plans to full re-analysis
- Matches tasks to execution capabilities by keyword
- Rejects plans with circular or dangling dependencies
- Caches scoring and validation results between runs`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
