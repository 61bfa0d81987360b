package models

import "time"

// AnalysisMode indicates how much re-analysis a sprint warrants.
type AnalysisMode string

const (
	// ModeIncremental indicates only low-confidence tasks need re-analysis.
	ModeIncremental AnalysisMode = "incremental"
	// ModeFull indicates the whole sprint should be re-analyzed.
	ModeFull AnalysisMode = "full"
)

// ConfidenceResult aggregates per-task confidence over a sprint.
// It is derived data, recomputed each run and never persisted.
type ConfidenceResult struct {
	// Average is the arithmetic mean confidence across all tasks, in [0,1].
	Average float64 `json:"average"`
	// LowConfidence lists IDs of tasks scoring below 0.5.
	LowConfidence []string `json:"low_confidence,omitempty"`
	// HighConfidence lists IDs of tasks scoring 0.8 or above.
	// Tasks in [0.5, 0.8) appear in neither list.
	HighConfidence []string `json:"high_confidence,omitempty"`
}

// ValidationResult reports the outcome of one validation check.
type ValidationResult struct {
	// Valid is true when no errors were found.
	Valid bool `json:"valid"`
	// Errors lists human-readable violations, each naming the offending task.
	Errors []string `json:"errors,omitempty"`
}

// PipelineResult is the terminal output of one orchestrator run.
// It is never mutated after being returned.
type PipelineResult struct {
	// RunID identifies the run that produced this result. It matches the
	// run ID stamped on emitted events and debug log lines.
	RunID string `json:"run_id"`
	// Success is true when every stage completed without a fatal error.
	Success bool `json:"success"`
	// TasksProcessed is the number of tasks the run handled.
	TasksProcessed int `json:"tasks_processed"`
	// Mode is the analysis mode chosen by the confidence gate.
	Mode AnalysisMode `json:"mode,omitempty"`
	// Duration is the elapsed wall-clock time for the run.
	Duration time.Duration `json:"duration"`
	// Error is the failure reason, empty on success.
	Error string `json:"error,omitempty"`
}
