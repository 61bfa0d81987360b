package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/cadence/internal/cache"
	"github.com/ShayCichocki/cadence/internal/config"
	"github.com/ShayCichocki/cadence/internal/enrich"
	"github.com/ShayCichocki/cadence/internal/orchestrator"
	"github.com/ShayCichocki/cadence/internal/registry"
	"github.com/ShayCichocki/cadence/internal/sprint"
	"github.com/ShayCichocki/cadence/internal/state"
	"github.com/ShayCichocki/cadence/pkg/models"
)

var (
	runStrict       bool
	runConcurrent   bool
	runWatch        bool
	runVerbose      bool
	runCapabilities string
	runNoHistory    bool
)

var runCmd = &cobra.Command{
	Use:   "run <plan.yaml>",
	Short: "Analyze a sprint plan",
	Long: `Run the full analysis pipeline over a sprint plan file.

The pipeline loads the plan, scores each task's confidence, decides
between incremental and full re-analysis, assigns execution
capabilities, gathers per-task context, and validates capability
references and the dependency graph.

With --watch, stays running and re-analyzes the plan whenever the
file changes on disk.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalysis,
}

func init() {
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "Treat unknown dependency references as validation errors")
	runCmd.Flags().BoolVar(&runConcurrent, "concurrent", false, "Gather task context concurrently")
	runCmd.Flags().BoolVarP(&runWatch, "watch", "w", false, "Re-analyze when the plan file changes")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print pipeline stage events")
	runCmd.Flags().StringVar(&runCapabilities, "capabilities", "", "Path to a capability definitions file")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "Skip recording run and assignment history")
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	planPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve plan path: %w", err)
	}
	if _, err := os.Stat(planPath); err != nil {
		return fmt.Errorf("plan file %s: %w", args[0], err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("strict") {
		cfg.Pipeline.StrictDependencies = runStrict
	}
	if cmd.Flags().Changed("concurrent") {
		cfg.Pipeline.ConcurrentEnrichment = runConcurrent
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	reg, histClose, err := buildRegistry(cwd)
	if err != nil {
		return err
	}
	defer histClose()

	baseDir := filepath.Dir(planPath)
	ref := filepath.Base(planPath)

	logger := orchestrator.NopLogger()
	if runVerbose {
		logger = orchestrator.NewDebugLoggerForProject(cwd)
	}
	defer logger.Close()

	pipeline := orchestrator.NewPipeline(orchestrator.PipelineConfig{
		Loader:               sprint.NewLoader(baseDir),
		Registry:             reg,
		Gatherer:             enrich.NewGatherer(cwd, nil),
		Cache:                cache.New(cfg.Cache.MaxSize, cfg.Cache.DefaultTTL),
		Recorder:             orchestrator.NewLogRecorder(logger),
		Logger:               logger,
		StrictDependencies:   cfg.Pipeline.StrictDependencies,
		ConcurrentEnrichment: cfg.Pipeline.ConcurrentEnrichment,
		Weights:              cfg.Scoring.Weights,
		ScoringTTL:           cfg.Cache.ScoringTTL,
		ValidationTTL:        cfg.Cache.ValidationTTL,
	})

	if runVerbose {
		go printEvents(pipeline.Events())
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	execute := func() {
		started := time.Now()
		result := pipeline.Run(ctx, ref)
		printResult(ref, result)
		if !runNoHistory {
			recordRun(cwd, ref, result, started, pipeline.Cache())
		}
	}

	execute()

	if !runWatch {
		return nil
	}

	changes := make(chan string, 1)
	watcher, err := sprint.NewWatcher(func(changedRef string) {
		select {
		case changes <- changedRef:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Watch(planPath, ref); err != nil {
		return fmt.Errorf("watch %s: %w", planPath, err)
	}

	fmt.Printf("\nWatching %s for changes (Ctrl-C to stop)...\n", args[0])

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sigCh:
			return nil
		case <-ctx.Done():
			return nil
		case <-changes:
			pipeline.InvalidateSprint(ref)
			fmt.Printf("\nPlan changed, re-analyzing...\n")
			execute()
		}
	}
}

// buildRegistry assembles the capability registry, wiring in assignment
// history unless disabled. The returned closer is always safe to call.
func buildRegistry(cwd string) (*registry.Registry, func(), error) {
	var opts []registry.Option
	closer := func() {}

	if !runNoHistory {
		histDir := filepath.Join(cwd, ".cadence")
		if err := os.MkdirAll(histDir, 0755); err == nil {
			hist, err := registry.NewHistoryStore(filepath.Join(histDir, "assignments.db"))
			if err == nil {
				opts = append(opts, registry.WithHistory(hist))
				closer = func() { hist.Close() }
			}
		}
	}

	if runCapabilities != "" {
		reg, err := registry.LoadFile(runCapabilities, opts...)
		if err != nil {
			closer()
			return nil, func() {}, fmt.Errorf("load capabilities: %w", err)
		}
		return reg, closer, nil
	}
	return registry.New(registry.Defaults(), opts...), closer, nil
}

// printEvents streams pipeline events to stdout.
func printEvents(events <-chan orchestrator.PipelineEvent) {
	dim := color.New(color.Faint)
	for ev := range events {
		if ev.Message != "" {
			dim.Printf("  [%s] %s: %s\n", ev.RunID, ev.Type, ev.Message)
		} else if ev.Stage != "" {
			dim.Printf("  [%s] %s: %s\n", ev.RunID, ev.Type, ev.Stage)
		} else {
			dim.Printf("  [%s] %s\n", ev.RunID, ev.Type)
		}
	}
}

// printResult prints the run outcome summary.
func printResult(ref string, result *models.PipelineResult) {
	if result.Success {
		fmt.Printf("%s %s analyzed: %d tasks, %s mode, %s\n",
			color.GreenString("✓"), ref, result.TasksProcessed, result.Mode,
			result.Duration.Round(time.Millisecond))
		return
	}

	fmt.Printf("%s %s failed after %s\n",
		color.RedString("✗"), ref, result.Duration.Round(time.Millisecond))
	if result.Error != "" {
		fmt.Printf("  %s\n", color.RedString(result.Error))
	}
}

// recordRun persists the run outcome and a cache snapshot. Failures here
// are reported but never fail the analysis itself.
func recordRun(cwd, ref string, result *models.PipelineResult, started time.Time, c *cache.Cache) {
	db, err := state.OpenProject(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: open run history: %v\n", err)
		return
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: migrate run history: %v\n", err)
		return
	}

	if err := db.RecordRun(result.RunID, ref, result, started); err != nil {
		fmt.Fprintf(os.Stderr, "warning: record run: %v\n", err)
		return
	}
	if err := db.RecordCacheStats(result.RunID, c.GetStats()); err != nil {
		fmt.Fprintf(os.Stderr, "warning: record cache stats: %v\n", err)
	}
}
