package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/cadence/internal/state"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent analysis runs",
	Long: `Display recent pipeline runs recorded for this project.

Shows each run's plan, outcome, analysis mode, task count, and
duration, plus the cache hit rate snapshot taken after the most
recent run.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVarP(&statusLimit, "limit", "n", 10, "Number of runs to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	dbPath := state.ProjectDBPath(cwd)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Println("No runs recorded. Run 'cadence run <plan.yaml>' to analyze a plan.")
		return nil
	}

	db, err := state.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	runs, err := db.ListRuns(statusLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded. Run 'cadence run <plan.yaml>' to analyze a plan.")
		return nil
	}

	fmt.Printf("Recent runs (%d):\n\n", len(runs))
	for _, run := range runs {
		symbol := color.GreenString("✓")
		if !run.Success {
			symbol = color.RedString("✗")
		}
		fmt.Printf("%s %s  %s  %-12s %3d tasks  %8s  %s\n",
			symbol,
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.ID,
			run.Mode,
			run.TasksProcessed,
			run.Duration.Round(time.Millisecond),
			run.PlanRef,
		)
		if run.Error != "" {
			fmt.Printf("    %s\n", color.RedString(run.Error))
		}
	}

	if stats, err := db.StatsForRun(runs[0].ID); err == nil && stats != nil {
		fmt.Printf("\nCache after last run: %d/%d entries, %.0f%% hit rate (%d hits, %d misses)\n",
			stats.Size, stats.MaxSize, stats.HitRate*100, stats.Hits, stats.Misses)
	}

	return nil
}
