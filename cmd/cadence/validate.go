package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/cadence/internal/orchestrator"
	"github.com/ShayCichocki/cadence/internal/registry"
	"github.com/ShayCichocki/cadence/internal/sprint"
)

var (
	validateStrict       bool
	validateCapabilities string
	validateDOT          bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <plan.yaml>",
	Short: "Validate a sprint plan without running analysis",
	Long: `Check a sprint plan for structural problems.

Validates plan structure (IDs, durations, approval gates), capability
references, and the dependency graph. All problems are reported at
once rather than stopping at the first.

With --dot, prints the dependency graph in Graphviz DOT format
instead of validating.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Treat unknown dependency references as validation errors")
	validateCmd.Flags().StringVar(&validateCapabilities, "capabilities", "", "Path to a capability definitions file")
	validateCmd.Flags().BoolVar(&validateDOT, "dot", false, "Print the dependency graph in DOT format")
}

func runValidate(cmd *cobra.Command, args []string) error {
	planPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve plan path: %w", err)
	}
	if _, err := os.Stat(planPath); err != nil {
		return fmt.Errorf("plan file %s: %w", args[0], err)
	}

	loader := sprint.NewLoader(filepath.Dir(planPath))
	plan, err := loader.Load(filepath.Base(planPath))
	if err != nil {
		return err
	}

	graph := orchestrator.NewDependencyGraph(validateStrict)
	if err := graph.Build(plan.Tasks); err != nil {
		return err
	}

	if validateDOT {
		fmt.Print(graph.ToDOT())
		return nil
	}

	var problems []string

	if result := sprint.Validate(plan); !result.Valid {
		problems = append(problems, result.Errors...)
	}

	reg, err := loadValidateRegistry()
	if err != nil {
		return err
	}
	if result := graph.CheckCapabilities(reg.Exists); !result.Valid {
		problems = append(problems, result.Errors...)
	}

	if result := graph.CheckCycles(); !result.Valid {
		problems = append(problems, result.Errors...)
	}

	if len(problems) > 0 {
		fmt.Printf("%s %s: %d problem(s)\n", color.RedString("✗"), args[0], len(problems))
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return fmt.Errorf("validation failed")
	}

	fmt.Printf("%s %s: %d tasks, plan is valid\n", color.GreenString("✓"), args[0], len(plan.Tasks))
	return nil
}

func loadValidateRegistry() (*registry.Registry, error) {
	if validateCapabilities != "" {
		reg, err := registry.LoadFile(validateCapabilities)
		if err != nil {
			return nil, fmt.Errorf("load capabilities: %w", err)
		}
		return reg, nil
	}
	return registry.New(registry.Defaults()), nil
}
