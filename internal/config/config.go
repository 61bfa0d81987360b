// Package config handles configuration loading and management for cadence.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/ShayCichocki/cadence/internal/confidence"
)

// Config holds all configuration for cadence.
type Config struct {
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// ScoringConfig holds confidence scoring settings.
type ScoringConfig struct {
	Weights confidence.Weights `mapstructure:"weights"`
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	MaxSize       int           `mapstructure:"max_size"`
	DefaultTTL    time.Duration `mapstructure:"default_ttl"`
	ScoringTTL    time.Duration `mapstructure:"scoring_ttl"`
	ValidationTTL time.Duration `mapstructure:"validation_ttl"`
}

// PipelineConfig holds pipeline behavior toggles.
type PipelineConfig struct {
	// StrictDependencies fails validation on references to unknown task IDs.
	StrictDependencies bool `mapstructure:"strict_dependencies"`
	// ConcurrentEnrichment gathers task context in parallel.
	ConcurrentEnrichment bool `mapstructure:"concurrent_enrichment"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (CADENCE_*)
// 2. Project config (.cadence.yaml in current directory or parent)
// 3. User config (~/.config/cadence/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("CADENCE")
	v.AutomaticEnv()

	v.BindEnv("pipeline.strict_dependencies", "CADENCE_STRICT_DEPENDENCIES")
	v.BindEnv("pipeline.concurrent_enrichment", "CADENCE_CONCURRENT_ENRICHMENT")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("scoring.weights.required_fields", cfg.Scoring.Weights.RequiredFields)
	v.Set("scoring.weights.acceptance_criteria", cfg.Scoring.Weights.AcceptanceCriteria)
	v.Set("scoring.weights.files", cfg.Scoring.Weights.Files)
	v.Set("scoring.weights.patterns", cfg.Scoring.Weights.Patterns)
	v.Set("scoring.weights.tests", cfg.Scoring.Weights.Tests)
	v.Set("cache.max_size", cfg.Cache.MaxSize)
	v.Set("cache.default_ttl", cfg.Cache.DefaultTTL.String())
	v.Set("cache.scoring_ttl", cfg.Cache.ScoringTTL.String())
	v.Set("cache.validation_ttl", cfg.Cache.ValidationTTL.String())
	v.Set("pipeline.strict_dependencies", cfg.Pipeline.StrictDependencies)
	v.Set("pipeline.concurrent_enrichment", cfg.Pipeline.ConcurrentEnrichment)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	defaults := confidence.DefaultWeights()
	v.SetDefault("scoring.weights.required_fields", defaults.RequiredFields)
	v.SetDefault("scoring.weights.acceptance_criteria", defaults.AcceptanceCriteria)
	v.SetDefault("scoring.weights.files", defaults.Files)
	v.SetDefault("scoring.weights.patterns", defaults.Patterns)
	v.SetDefault("scoring.weights.tests", defaults.Tests)

	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.default_ttl", "5m")
	v.SetDefault("cache.scoring_ttl", "2m")
	v.SetDefault("cache.validation_ttl", "10m")

	v.SetDefault("pipeline.strict_dependencies", false)
	v.SetDefault("pipeline.concurrent_enrichment", false)
}

// getUserConfigDir returns the XDG config directory for cadence.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "cadence")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "cadence")
	}
	return filepath.Join(home, ".config", "cadence")
}

// findProjectConfig searches for .cadence.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".cadence.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Scoring: ScoringConfig{
			Weights: confidence.DefaultWeights(),
		},
		Cache: CacheConfig{
			MaxSize:       1000,
			DefaultTTL:    5 * time.Minute,
			ScoringTTL:    2 * time.Minute,
			ValidationTTL: 10 * time.Minute,
		},
		Pipeline: PipelineConfig{
			StrictDependencies:   false,
			ConcurrentEnrichment: false,
		},
	}
}
