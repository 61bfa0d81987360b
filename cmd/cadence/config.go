package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/cadence/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify cadence configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/cadence/config.yaml
Project-specific overrides can be placed in .cadence.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("scoring.weights.required_fields: %g\n", cfg.Scoring.Weights.RequiredFields)
	fmt.Printf("scoring.weights.acceptance_criteria: %g\n", cfg.Scoring.Weights.AcceptanceCriteria)
	fmt.Printf("scoring.weights.files: %g\n", cfg.Scoring.Weights.Files)
	fmt.Printf("scoring.weights.patterns: %g\n", cfg.Scoring.Weights.Patterns)
	fmt.Printf("scoring.weights.tests: %g\n", cfg.Scoring.Weights.Tests)
	fmt.Printf("cache.max_size: %d\n", cfg.Cache.MaxSize)
	fmt.Printf("cache.default_ttl: %s\n", cfg.Cache.DefaultTTL)
	fmt.Printf("cache.scoring_ttl: %s\n", cfg.Cache.ScoringTTL)
	fmt.Printf("cache.validation_ttl: %s\n", cfg.Cache.ValidationTTL)
	fmt.Printf("pipeline.strict_dependencies: %t\n", cfg.Pipeline.StrictDependencies)
	fmt.Printf("pipeline.concurrent_enrichment: %t\n", cfg.Pipeline.ConcurrentEnrichment)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue returns the string form of a configuration value.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "scoring.weights.required_fields":
		return fmt.Sprintf("%g", cfg.Scoring.Weights.RequiredFields), nil
	case "scoring.weights.acceptance_criteria":
		return fmt.Sprintf("%g", cfg.Scoring.Weights.AcceptanceCriteria), nil
	case "scoring.weights.files":
		return fmt.Sprintf("%g", cfg.Scoring.Weights.Files), nil
	case "scoring.weights.patterns":
		return fmt.Sprintf("%g", cfg.Scoring.Weights.Patterns), nil
	case "scoring.weights.tests":
		return fmt.Sprintf("%g", cfg.Scoring.Weights.Tests), nil
	case "cache.max_size":
		return strconv.Itoa(cfg.Cache.MaxSize), nil
	case "cache.default_ttl":
		return cfg.Cache.DefaultTTL.String(), nil
	case "cache.scoring_ttl":
		return cfg.Cache.ScoringTTL.String(), nil
	case "cache.validation_ttl":
		return cfg.Cache.ValidationTTL.String(), nil
	case "pipeline.strict_dependencies":
		return strconv.FormatBool(cfg.Pipeline.StrictDependencies), nil
	case "pipeline.concurrent_enrichment":
		return strconv.FormatBool(cfg.Pipeline.ConcurrentEnrichment), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue parses and applies a configuration value.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "scoring.weights.required_fields":
		return setWeight(&cfg.Scoring.Weights.RequiredFields, value)
	case "scoring.weights.acceptance_criteria":
		return setWeight(&cfg.Scoring.Weights.AcceptanceCriteria, value)
	case "scoring.weights.files":
		return setWeight(&cfg.Scoring.Weights.Files, value)
	case "scoring.weights.patterns":
		return setWeight(&cfg.Scoring.Weights.Patterns, value)
	case "scoring.weights.tests":
		return setWeight(&cfg.Scoring.Weights.Tests, value)
	case "cache.max_size":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid max_size: %s", value)
		}
		cfg.Cache.MaxSize = n
		return nil
	case "cache.default_ttl":
		return setDuration(&cfg.Cache.DefaultTTL, value)
	case "cache.scoring_ttl":
		return setDuration(&cfg.Cache.ScoringTTL, value)
	case "cache.validation_ttl":
		return setDuration(&cfg.Cache.ValidationTTL, value)
	case "pipeline.strict_dependencies":
		return setBool(&cfg.Pipeline.StrictDependencies, value)
	case "pipeline.concurrent_enrichment":
		return setBool(&cfg.Pipeline.ConcurrentEnrichment, value)
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
}

func setWeight(dst *float64, value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		return fmt.Errorf("invalid weight: %s", value)
	}
	*dst = f
	return nil
}

func setDuration(dst *time.Duration, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fmt.Errorf("invalid duration: %s", value)
	}
	*dst = d
	return nil
}

func setBool(dst *bool, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean: %s", value)
	}
	*dst = b
	return nil
}
