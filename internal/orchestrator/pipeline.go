package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/cadence/internal/cache"
	"github.com/ShayCichocki/cadence/internal/confidence"
	"github.com/ShayCichocki/cadence/internal/sprint"
	"github.com/ShayCichocki/cadence/pkg/models"
)

// Stage names used in events and observability records.
const (
	StageLoad                 = "load"
	StageScore                = "score"
	StageDecideMode           = "decide_mode"
	StageAssignCapability     = "assign_capability"
	StageEnrichContext        = "enrich_context"
	StageValidateCapability   = "validate_capability"
	StageValidateDependencies = "validate_dependencies"
)

// Default cache TTLs per stage. Scoring results age out faster than
// structural validation since task descriptions churn more than
// dependency shape.
const (
	ScoringTTL    = 2 * time.Minute
	ValidationTTL = 10 * time.Minute
)

// PipelineConfig contains configuration options for the Pipeline.
type PipelineConfig struct {
	// Loader obtains sprints from their backing source. Required.
	Loader SprintLoader
	// Registry assigns and checks execution capabilities. Required.
	Registry CapabilityRegistry
	// Gatherer collects supporting context per task. Required.
	Gatherer ContextGatherer
	// Cache stores reusable stage results. If nil, a private cache with
	// default limits is created.
	Cache *cache.Cache
	// Recorder receives advisory operation records. If nil, records are
	// discarded.
	Recorder Recorder
	// Logger receives debug output. If nil, logging is disabled.
	Logger *DebugLogger
	// StrictDependencies reports dependency references to unknown task IDs
	// as validation errors instead of skipping them.
	StrictDependencies bool
	// ConcurrentEnrichment runs context gathering for all tasks at once.
	// Safe because enrichment has no cross-task ordering requirements;
	// capability assignment always stays sequential.
	ConcurrentEnrichment bool
	// Weights overrides the scorer's weight table. Zero value uses defaults.
	Weights confidence.Weights
	// ScoringTTL overrides the lifetime of cached confidence results.
	// Zero or negative uses the package default.
	ScoringTTL time.Duration
	// ValidationTTL overrides the lifetime of cached dependency validation
	// results. Zero or negative uses the package default.
	ValidationTTL time.Duration
}

// Pipeline runs the confidence-gated analysis over one sprint at a time.
// A single Pipeline may serve interleaved runs; the cache is the only
// state shared between them.
type Pipeline struct {
	loader   SprintLoader
	registry CapabilityRegistry
	gatherer ContextGatherer
	scorer   *confidence.Scorer
	cache    *cache.Cache
	recorder Recorder
	logger   *DebugLogger

	strictDeps       bool
	concurrentGather bool
	scoringTTL       time.Duration
	validationTTL    time.Duration

	// events is the channel for emitting pipeline events.
	events chan PipelineEvent
}

// NewPipeline creates a Pipeline with the given configuration.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	c := cfg.Cache
	if c == nil {
		c = cache.New(cache.DefaultMaxSize, cache.DefaultTTL)
	}
	rec := cfg.Recorder
	if rec == nil {
		rec = NopRecorder{}
	}
	scoringTTL := cfg.ScoringTTL
	if scoringTTL <= 0 {
		scoringTTL = ScoringTTL
	}
	validationTTL := cfg.ValidationTTL
	if validationTTL <= 0 {
		validationTTL = ValidationTTL
	}

	return &Pipeline{
		loader:           cfg.Loader,
		registry:         cfg.Registry,
		gatherer:         cfg.Gatherer,
		scorer:           confidence.NewScorer(cfg.Weights),
		cache:            c,
		recorder:         rec,
		logger:           cfg.Logger,
		strictDeps:       cfg.StrictDependencies,
		concurrentGather: cfg.ConcurrentEnrichment,
		scoringTTL:       scoringTTL,
		validationTTL:    validationTTL,
		events:           make(chan PipelineEvent, 100),
	}
}

// Events returns a read-only channel of pipeline events.
func (p *Pipeline) Events() <-chan PipelineEvent {
	return p.events
}

// Cache returns the pipeline's cache for inspection.
func (p *Pipeline) Cache() *cache.Cache {
	return p.cache
}

// DecideMode maps an aggregate confidence score to an analysis mode.
// The boundary is inclusive on the incremental side: an average of
// exactly 0.5 warrants incremental re-analysis.
func DecideMode(average float64) models.AnalysisMode {
	if average >= 0.5 {
		return models.ModeIncremental
	}
	return models.ModeFull
}

// Run executes one full pipeline pass over the sprint identified by ref:
//
//	Load -> Score -> DecideMode -> AssignCapability -> EnrichContext ->
//	ValidateCapability -> ValidateDependencies -> result
//
// Stages run strictly in order with no retries. Any panic from a
// collaborator is recovered here and converted into a failure result;
// Run never propagates a panic or error past its own boundary.
func (p *Pipeline) Run(ctx context.Context, ref string) (result *models.PipelineResult) {
	start := time.Now()
	runID := uuid.New().String()[:8]

	defer func() {
		if r := recover(); r != nil {
			p.recorder.RecordFail("pipeline.run", map[string]string{"run_id": runID, "panic": fmt.Sprint(r)})
			result = &models.PipelineResult{
				RunID:    runID,
				Success:  false,
				Duration: time.Since(start),
				Error:    fmt.Sprintf("unexpected collaborator failure: %v", r),
			}
		}
		p.emitEvent(PipelineEvent{Type: EventRunCompleted, RunID: runID, Timestamp: time.Now()})
	}()

	p.logger.Log("run %s: analyzing sprint %q", runID, ref)
	p.recorder.RecordStart("pipeline.run", map[string]string{"run_id": runID, "sprint": ref})
	p.emitEvent(PipelineEvent{Type: EventRunStarted, RunID: runID, Message: ref, Timestamp: time.Now()})

	// Load. The one stage whose error shape differs from the rest: parse
	// errors carry file/line/column and are surfaced verbatim.
	plan, err := p.runLoad(runID, ref)
	if err != nil {
		return p.fail(runID, start, 0, err.Error())
	}

	// Score. Never fails; results are cached per sprint since scoring is
	// pure over the task set.
	conf := p.runScore(runID, ref, plan)

	// DecideMode. Informational for the remaining stages; it tells the
	// caller how much external re-analysis is warranted.
	mode := DecideMode(conf.Average)
	p.logger.Log("run %s: average confidence %.3f -> %s mode (%d low, %d high)",
		runID, conf.Average, mode, len(conf.LowConfidence), len(conf.HighConfidence))
	p.emitEvent(PipelineEvent{
		Type: EventModeDecided, RunID: runID, Stage: StageDecideMode,
		Message: string(mode), Timestamp: time.Now(),
	})

	// AssignCapability. Sequential per task in declaration order: the
	// registry may prompt a human, and those prompts must not interleave.
	if err := p.runAssign(ctx, runID, plan); err != nil {
		return p.fail(runID, start, len(plan.Tasks), fmt.Sprintf("capability assignment: %v", err))
	}

	// EnrichContext. Best-effort per task; no cross-task ordering.
	p.runEnrich(ctx, runID, plan)

	// ValidateCapability, then ValidateDependencies. Either failing stops
	// the run; the cycle check never runs after a capability failure.
	graph := NewDependencyGraph(p.strictDeps)
	if err := graph.Build(plan.Tasks); err != nil {
		return p.fail(runID, start, len(plan.Tasks), err.Error())
	}

	if res := p.runValidateCapability(runID, graph); !res.Valid {
		return p.fail(runID, start, len(plan.Tasks), strings.Join(res.Errors, "; "))
	}

	if res := p.runValidateDependencies(runID, ref, graph); !res.Valid {
		return p.fail(runID, start, len(plan.Tasks), strings.Join(res.Errors, "; "))
	}

	p.recorder.RecordEnd("pipeline.run", map[string]string{"run_id": runID})
	return &models.PipelineResult{
		RunID:          runID,
		Success:        true,
		TasksProcessed: len(plan.Tasks),
		Mode:           mode,
		Duration:       time.Since(start),
	}
}

// runLoad obtains the sprint from the loader. A missing source is not an
// error; the loader returns an empty sprint for it.
func (p *Pipeline) runLoad(runID, ref string) (*models.Sprint, error) {
	p.stageStart(runID, StageLoad)

	plan, err := p.loader.Load(ref)
	if err != nil {
		var perr *sprint.ParseError
		if errors.As(err, &perr) {
			p.recorder.RecordFail(StageLoad, map[string]string{"run_id": runID, "error": perr.Error()})
			return nil, perr
		}
		p.recorder.RecordFail(StageLoad, map[string]string{"run_id": runID, "error": err.Error()})
		return nil, fmt.Errorf("load sprint %q: %w", ref, err)
	}

	p.stageEnd(runID, StageLoad)
	return plan, nil
}

// runScore scores the sprint, reusing a cached result when present.
func (p *Pipeline) runScore(runID, ref string, plan *models.Sprint) models.ConfidenceResult {
	p.stageStart(runID, StageScore)
	defer p.stageEnd(runID, StageScore)

	key := confidenceKey(ref)
	if cached, ok := p.cache.Get(key); ok {
		if conf, ok := cached.(models.ConfidenceResult); ok {
			p.logger.Log("run %s: confidence cache hit for %q", runID, ref)
			return conf
		}
	}

	conf := p.scorer.ScoreSprint(plan)
	p.cache.Set(key, conf, p.scoringTTL)
	return conf
}

// runAssign asks the registry for a capability for each task, strictly one
// task at a time in declaration order.
func (p *Pipeline) runAssign(ctx context.Context, runID string, plan *models.Sprint) error {
	p.stageStart(runID, StageAssignCapability)

	for _, task := range plan.Tasks {
		capability, err := p.registry.Assign(ctx, task)
		if err != nil {
			p.recorder.RecordFail(StageAssignCapability, map[string]string{"run_id": runID, "task": task.ID})
			return fmt.Errorf("task %s: %w", task.ID, err)
		}
		task.Capability = capability
	}

	p.stageEnd(runID, StageAssignCapability)
	return nil
}

// runEnrich attaches gathered context to every task, sequentially by
// default or fanned out when concurrent enrichment is enabled.
func (p *Pipeline) runEnrich(ctx context.Context, runID string, plan *models.Sprint) {
	p.stageStart(runID, StageEnrichContext)

	if p.concurrentGather {
		var wg sync.WaitGroup
		for _, task := range plan.Tasks {
			wg.Add(1)
			go func(t *models.Task) {
				defer wg.Done()
				t.Enrichment = p.gatherer.Gather(ctx, t)
			}(task)
		}
		wg.Wait()
	} else {
		for _, task := range plan.Tasks {
			task.Enrichment = p.gatherer.Gather(ctx, task)
		}
	}

	p.stageEnd(runID, StageEnrichContext)
}

// runValidateCapability checks every assigned capability against the
// registry. Not cached: the result depends on this run's assignments.
func (p *Pipeline) runValidateCapability(runID string, graph *DependencyGraph) models.ValidationResult {
	p.stageStart(runID, StageValidateCapability)

	res := graph.CheckCapabilities(p.registry.Exists)
	if !res.Valid {
		p.emitEvent(PipelineEvent{
			Type: EventValidationFailed, RunID: runID, Stage: StageValidateCapability,
			Message: strings.Join(res.Errors, "; "), Timestamp: time.Now(),
		})
		p.recorder.RecordFail(StageValidateCapability, map[string]string{"run_id": runID})
		return res
	}

	p.stageEnd(runID, StageValidateCapability)
	return res
}

// runValidateDependencies runs the cycle check. The result depends only on
// the sprint's dependency shape, so it is cached per sprint.
func (p *Pipeline) runValidateDependencies(runID, ref string, graph *DependencyGraph) models.ValidationResult {
	p.stageStart(runID, StageValidateDependencies)

	key := validationKey(ref)
	if cached, ok := p.cache.Get(key); ok {
		if res, ok := cached.(models.ValidationResult); ok {
			p.logger.Log("run %s: validation cache hit for %q", runID, ref)
			return res
		}
	}

	res := graph.CheckCycles()
	p.cache.Set(key, res, p.validationTTL)

	if !res.Valid {
		p.emitEvent(PipelineEvent{
			Type: EventValidationFailed, RunID: runID, Stage: StageValidateDependencies,
			Message: strings.Join(res.Errors, "; "), Timestamp: time.Now(),
		})
		p.recorder.RecordFail(StageValidateDependencies, map[string]string{"run_id": runID})
		return res
	}

	p.stageEnd(runID, StageValidateDependencies)
	return res
}

// fail builds a failure result and records it.
func (p *Pipeline) fail(runID string, start time.Time, tasks int, reason string) *models.PipelineResult {
	p.logger.Log("run %s: failed: %s", runID, reason)
	p.recorder.RecordFail("pipeline.run", map[string]string{"run_id": runID, "error": reason})
	return &models.PipelineResult{
		RunID:          runID,
		Success:        false,
		TasksProcessed: tasks,
		Duration:       time.Since(start),
		Error:          reason,
	}
}

func (p *Pipeline) stageStart(runID, stage string) {
	p.recorder.RecordStart(stage, map[string]string{"run_id": runID})
	p.emitEvent(PipelineEvent{Type: EventStageStarted, RunID: runID, Stage: stage, Timestamp: time.Now()})
}

func (p *Pipeline) stageEnd(runID, stage string) {
	p.recorder.RecordEnd(stage, map[string]string{"run_id": runID})
	p.emitEvent(PipelineEvent{Type: EventStageCompleted, RunID: runID, Stage: stage, Timestamp: time.Now()})
}

// emitEvent sends an event to the events channel.
func (p *Pipeline) emitEvent(event PipelineEvent) {
	select {
	case p.events <- event:
	default:
		// Channel full, drop event to avoid blocking
	}
}

// confidenceKey is the cache key for a sprint's confidence result.
func confidenceKey(ref string) string {
	return "confidence:" + ref
}

// validationKey is the cache key for a sprint's dependency validation.
func validationKey(ref string) string {
	return "validation:" + ref
}

// InvalidateSprint drops all cached results for the given sprint.
// Called when the backing plan file changes.
func (p *Pipeline) InvalidateSprint(ref string) {
	p.cache.Invalidate(confidenceKey(ref))
	p.cache.Invalidate(validationKey(ref))
}
