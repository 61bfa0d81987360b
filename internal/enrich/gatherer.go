// Package enrich gathers supporting context for tasks: which of their
// declared files exist, which patterns apply, and a rough complexity
// estimate. Gathering is best-effort by design; a failure inside the
// gatherer degrades to an empty bag rather than failing the pipeline.
package enrich

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ShayCichocki/cadence/pkg/models"
)

// Gatherer collects task context from the project tree.
type Gatherer struct {
	// root is the project directory declared file paths resolve against.
	root string
	// patterns maps pattern names to keywords that activate them.
	patterns map[string][]string
}

// DefaultPatterns returns the built-in pattern table.
func DefaultPatterns() map[string][]string {
	return map[string][]string{
		"migration":   {"migration", "schema", "alter table"},
		"crud":        {"create", "read", "update", "delete", "endpoint"},
		"validation":  {"validate", "validation", "sanitize"},
		"auth":        {"auth", "login", "token", "session"},
		"async-queue": {"queue", "worker", "background", "job"},
	}
}

// NewGatherer creates a Gatherer rooted at the given project directory.
// A nil pattern table uses the defaults.
func NewGatherer(root string, patterns map[string][]string) *Gatherer {
	if patterns == nil {
		patterns = DefaultPatterns()
	}
	return &Gatherer{root: root, patterns: patterns}
}

// Gather collects the enrichment bag for a task. It never returns nil and
// never fails: unreadable paths simply land in FilesMissing.
func (g *Gatherer) Gather(ctx context.Context, task *models.Task) *models.Enrichment {
	bag := &models.Enrichment{}
	if err := ctx.Err(); err != nil {
		return bag
	}

	for _, file := range task.Files {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(g.root, path)
		}
		if _, err := os.Stat(path); err == nil {
			bag.FilesFound = append(bag.FilesFound, file)
		} else {
			bag.FilesMissing = append(bag.FilesMissing, file)
		}
	}

	bag.MatchedPatterns = g.matchPatterns(task)
	bag.Complexity = estimateComplexity(task, bag)
	return bag
}

// matchPatterns returns pattern names whose keywords appear in the task
// text, restricted to patterns the task declares when it declares any.
func (g *Gatherer) matchPatterns(task *models.Task) []string {
	text := strings.ToLower(task.Title + " " + task.Description)

	declared := make(map[string]bool, len(task.Patterns))
	for _, p := range task.Patterns {
		declared[p] = true
	}

	var matched []string
	for name, keywords := range g.patterns {
		if len(declared) > 0 && !declared[name] {
			continue
		}
		for _, keyword := range keywords {
			if strings.Contains(text, keyword) {
				matched = append(matched, name)
				break
			}
		}
	}
	sort.Strings(matched)
	return matched
}

// estimateComplexity produces a rough 1-10 effort estimate from the
// gathered context and the task's declared shape.
func estimateComplexity(task *models.Task, bag *models.Enrichment) int {
	score := 1
	score += len(task.Dependencies)
	score += len(bag.FilesFound) / 2
	score += len(bag.FilesMissing) // missing context makes work harder
	if d := models.ParseDuration(task.Duration); d > 8*time.Hour {
		score += 2
	}
	if score > 10 {
		score = 10
	}
	return score
}
