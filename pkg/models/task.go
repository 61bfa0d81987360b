package models

import "time"

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress indicates the task is being worked on.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusCompleted indicates the task finished successfully.
	TaskStatusCompleted TaskStatus = "completed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// Task represents a unit of work in a sprint plan.
type Task struct {
	// ID is the unique identifier for this task within a sprint (e.g., "DB-001").
	ID string `yaml:"id" json:"id"`
	// Title is the short description of the task.
	Title string `yaml:"title" json:"title"`
	// Description provides detailed information about the task.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// Duration is the human-readable estimate (e.g., "2 hours").
	Duration string `yaml:"duration,omitempty" json:"duration,omitempty"`
	// Dependencies lists task IDs that must complete before this task.
	Dependencies []string `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	// Status is the current state of the task.
	Status TaskStatus `yaml:"status,omitempty" json:"status"`
	// AcceptanceCriteria defines what "done" means for this task.
	AcceptanceCriteria []string `yaml:"acceptance_criteria,omitempty" json:"acceptance_criteria,omitempty"`
	// Files lists files the task expects to touch, used for context gathering.
	Files []string `yaml:"files,omitempty" json:"files,omitempty"`
	// Patterns lists pattern names relevant to the task.
	Patterns []string `yaml:"patterns,omitempty" json:"patterns,omitempty"`
	// TestsPassing records whether the task's referenced tests currently pass.
	TestsPassing bool `yaml:"tests_passing,omitempty" json:"tests_passing,omitempty"`
	// Capability is the ID of the execution capability assigned to this task.
	// Empty until the assignment stage runs.
	Capability string `yaml:"capability,omitempty" json:"capability,omitempty"`
	// Enrichment holds supporting context attached by the gathering stage.
	// Nil until that stage runs.
	Enrichment *Enrichment `yaml:"-" json:"enrichment,omitempty"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `yaml:"created_at,omitempty" json:"created_at,omitempty"`
}

// Enrichment is the bag of supporting context gathered for a task.
type Enrichment struct {
	// FilesFound lists declared files that were located on disk.
	FilesFound []string `json:"files_found,omitempty"`
	// FilesMissing lists declared files that could not be located.
	FilesMissing []string `json:"files_missing,omitempty"`
	// MatchedPatterns lists pattern names that matched the task context.
	MatchedPatterns []string `json:"matched_patterns,omitempty"`
	// Complexity is a rough effort estimate derived from the gathered context.
	Complexity int `json:"complexity"`
}
