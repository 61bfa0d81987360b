package orchestrator

import (
	"context"

	"github.com/ShayCichocki/cadence/pkg/models"
)

// SprintLoader obtains the current sprint from its backing source.
// A missing source yields an empty sprint and nil error; a malformed one
// yields a structured parse error carrying location metadata.
type SprintLoader interface {
	Load(ref string) (*models.Sprint, error)
}

// CapabilityRegistry assigns and checks execution capabilities.
type CapabilityRegistry interface {
	// Assign picks a capability for the task. It may involve interactive
	// disambiguation, so callers must invoke it sequentially per task in
	// declaration order. Returns an error if no capability matches.
	Assign(ctx context.Context, task *models.Task) (string, error)
	// Exists reports whether the capability ID is known. Never fails.
	Exists(capabilityID string) bool
}

// ContextGatherer collects supporting files, patterns, and a complexity
// estimate for a task. Best-effort: implementations return an empty bag
// on internal failure rather than an error.
type ContextGatherer interface {
	Gather(ctx context.Context, task *models.Task) *models.Enrichment
}

// Recorder is an advisory observability sink. Implementations must never
// fail; the pipeline calls it around every stage.
type Recorder interface {
	RecordStart(operation string, meta map[string]string)
	RecordEnd(operation string, meta map[string]string)
	RecordFail(operation string, meta map[string]string)
}

// NopRecorder is a Recorder that discards everything.
type NopRecorder struct{}

func (NopRecorder) RecordStart(string, map[string]string) {}
func (NopRecorder) RecordEnd(string, map[string]string)   {}
func (NopRecorder) RecordFail(string, map[string]string)  {}

// LogRecorder records operations to a DebugLogger.
type LogRecorder struct {
	logger *DebugLogger
}

// NewLogRecorder creates a Recorder backed by the given logger.
func NewLogRecorder(logger *DebugLogger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) RecordStart(operation string, meta map[string]string) {
	r.logger.Log("start %s %v", operation, meta)
}

func (r *LogRecorder) RecordEnd(operation string, meta map[string]string) {
	r.logger.Log("end %s %v", operation, meta)
}

func (r *LogRecorder) RecordFail(operation string, meta map[string]string) {
	r.logger.Log("fail %s %v", operation, meta)
}
