package models

import (
	"strconv"
	"strings"
	"time"
)

// Sprint is an ordered collection of tasks plus plan metadata.
// The orchestrator treats a Sprint as a value: it reads it, enriches the
// tasks in place, and returns; it does not retain ownership across runs.
type Sprint struct {
	// Name is the sprint name (e.g., "Add OAuth2 Authentication").
	Name string `yaml:"name" json:"name"`
	// Version is the optional plan format version.
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
	// Duration is the human-readable sprint estimate (e.g., "1 week").
	Duration string `yaml:"duration,omitempty" json:"duration,omitempty"`
	// Goals lists high-level sprint goals.
	Goals []string `yaml:"goals,omitempty" json:"goals,omitempty"`
	// Tasks is the ordered task list. Declaration order is significant for
	// stages whose collaborators have ordered side effects.
	Tasks []*Task `yaml:"tasks" json:"tasks"`
	// ApprovalGates lists human checkpoints tied to task completion.
	ApprovalGates []ApprovalGate `yaml:"approval_gates,omitempty" json:"approval_gates,omitempty"`
}

// ApprovalGate is a human checkpoint that triggers once its required
// tasks have completed.
type ApprovalGate struct {
	// Stage identifies the gate (e.g., "after-core-implementation").
	Stage string `yaml:"stage" json:"stage"`
	// Requires lists task IDs that must complete before the gate triggers.
	Requires []string `yaml:"requires" json:"requires"`
	// Message is shown to the human when the gate triggers.
	Message string `yaml:"message" json:"message"`
}

// TaskByID returns the task with the given ID, or nil if not present.
func (s *Sprint) TaskByID(id string) *Task {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// ParseDuration converts a human-readable estimate like "2 hours" or
// "1 week" into a Duration. Days count as 8 working hours and weeks as
// 5 working days. Returns 0 for anything unparseable.
func ParseDuration(s string) time.Duration {
	parts := strings.Fields(s)
	if len(parts) < 2 {
		return 0
	}

	value, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || value < 0 {
		return 0
	}

	switch strings.ToLower(parts[1]) {
	case "minute", "minutes", "min":
		return time.Duration(value) * time.Minute
	case "hour", "hours", "hr", "hrs":
		return time.Duration(value) * time.Hour
	case "day", "days":
		return time.Duration(value) * 8 * time.Hour
	case "week", "weeks":
		return time.Duration(value) * 5 * 8 * time.Hour
	default:
		return 0
	}
}
