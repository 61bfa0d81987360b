// Package orchestrator composes scoring, validation, and caching into a
// single ordered pipeline run over a sprint.
package orchestrator

import (
	"time"
)

// EventType represents the type of pipeline event.
type EventType string

const (
	// EventRunStarted indicates a pipeline run has begun.
	EventRunStarted EventType = "run_started"
	// EventStageStarted indicates a stage has begun.
	EventStageStarted EventType = "stage_started"
	// EventStageCompleted indicates a stage finished successfully.
	EventStageCompleted EventType = "stage_completed"
	// EventModeDecided indicates the confidence gate chose an analysis mode.
	EventModeDecided EventType = "mode_decided"
	// EventValidationFailed indicates a validation stage produced errors.
	EventValidationFailed EventType = "validation_failed"
	// EventRunCompleted indicates the run finished, successfully or not.
	EventRunCompleted EventType = "run_completed"
)

// PipelineEvent is emitted as a run progresses. Events are advisory;
// dropping them never affects the run outcome.
type PipelineEvent struct {
	// Type is the kind of event.
	Type EventType
	// RunID identifies the pipeline run.
	RunID string
	// Stage is the stage name, when applicable.
	Stage string
	// TaskID is the related task, when applicable.
	TaskID string
	// Message provides additional context.
	Message string
	// Timestamp is when the event occurred.
	Timestamp time.Time
}
