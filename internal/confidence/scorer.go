// Package confidence scores how complete and ready a task's description is.
// Scoring is pure and deterministic: the same task always produces the same
// score, and every score lands in [0,1].
package confidence

import (
	"github.com/ShayCichocki/cadence/pkg/models"
)

// Signal names reported in TaskScore.Signals.
const (
	SignalRequiredFields     = "required_fields"
	SignalAcceptanceCriteria = "acceptance_criteria"
	SignalFiles              = "files"
	SignalPatterns           = "patterns"
	SignalTests              = "tests"
)

// Thresholds for partitioning tasks by confidence.
const (
	// LowThreshold marks tasks needing re-analysis (confidence below it).
	LowThreshold = 0.5
	// HighThreshold marks tasks considered ready (confidence at or above it).
	HighThreshold = 0.8
)

// TaskScore is the scoring outcome for a single task.
type TaskScore struct {
	// Confidence is the weighted score in [0,1].
	Confidence float64
	// Signals maps each signal name to its raw contribution in [0,1].
	Signals map[string]float64
}

// Weights is the tunable contribution of each signal. The weight table is
// configuration, not contract: only normalization to [0,1] and determinism
// are load-bearing.
type Weights struct {
	RequiredFields     float64 `mapstructure:"required_fields" yaml:"required_fields"`
	AcceptanceCriteria float64 `mapstructure:"acceptance_criteria" yaml:"acceptance_criteria"`
	Files              float64 `mapstructure:"files" yaml:"files"`
	Patterns           float64 `mapstructure:"patterns" yaml:"patterns"`
	Tests              float64 `mapstructure:"tests" yaml:"tests"`
}

// DefaultWeights returns the built-in weight table.
func DefaultWeights() Weights {
	return Weights{
		RequiredFields:     0.30,
		AcceptanceCriteria: 0.25,
		Files:              0.20,
		Patterns:           0.10,
		Tests:              0.15,
	}
}

// total returns the sum of all weights, used for normalization.
func (w Weights) total() float64 {
	return w.RequiredFields + w.AcceptanceCriteria + w.Files + w.Patterns + w.Tests
}

// Scorer computes confidence scores for tasks and sprints.
type Scorer struct {
	weights Weights
}

// NewScorer creates a Scorer with the given weight table. Weight tables
// that sum to zero fall back to the defaults so the normalization
// invariant always holds.
func NewScorer(weights Weights) *Scorer {
	if weights.total() <= 0 {
		weights = DefaultWeights()
	}
	return &Scorer{weights: weights}
}

// Score evaluates a single task. The confidence is the weighted sum of
// independently observable signals, normalized by the total weight so it
// always lands in [0,1].
func (s *Scorer) Score(task *models.Task) TaskScore {
	signals := map[string]float64{
		SignalRequiredFields:     requiredFieldsSignal(task),
		SignalAcceptanceCriteria: boolSignal(len(task.AcceptanceCriteria) > 0),
		SignalFiles:              boolSignal(len(task.Files) > 0),
		SignalPatterns:           boolSignal(len(task.Patterns) > 0),
		SignalTests:              boolSignal(task.TestsPassing),
	}

	weighted := signals[SignalRequiredFields]*s.weights.RequiredFields +
		signals[SignalAcceptanceCriteria]*s.weights.AcceptanceCriteria +
		signals[SignalFiles]*s.weights.Files +
		signals[SignalPatterns]*s.weights.Patterns +
		signals[SignalTests]*s.weights.Tests

	confidence := weighted / s.weights.total()
	confidence = clamp(confidence)

	return TaskScore{Confidence: confidence, Signals: signals}
}

// ScoreSprint scores every task in the sprint and partitions task IDs into
// low (<0.5) and high (>=0.8) buckets. Tasks scoring in [0.5, 0.8) appear
// in neither bucket. An empty sprint yields an average of 0.
func (s *Scorer) ScoreSprint(sprint *models.Sprint) models.ConfidenceResult {
	result := models.ConfidenceResult{}
	if len(sprint.Tasks) == 0 {
		return result
	}

	sum := 0.0
	for _, task := range sprint.Tasks {
		score := s.Score(task)
		sum += score.Confidence

		switch {
		case score.Confidence < LowThreshold:
			result.LowConfidence = append(result.LowConfidence, task.ID)
		case score.Confidence >= HighThreshold:
			result.HighConfidence = append(result.HighConfidence, task.ID)
		}
	}

	result.Average = clamp(sum / float64(len(sprint.Tasks)))
	return result
}

// requiredFieldsSignal measures presence of the fields every task needs.
// Each of ID, title, and description contributes a third.
func requiredFieldsSignal(task *models.Task) float64 {
	present := 0
	if task.ID != "" {
		present++
	}
	if task.Title != "" {
		present++
	}
	if task.Description != "" {
		present++
	}
	return float64(present) / 3.0
}

func boolSignal(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
