// Package registry manages execution capabilities and their assignment to
// tasks. A capability names who or what will execute a task (database, ui,
// api, ...). The registry validates existence, not suitability.
package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/cadence/pkg/models"
)

// ErrNoMatch is returned when no capability matches a task and no default
// capability is configured.
var ErrNoMatch = errors.New("no capability matches task")

// Capability describes one execution capability.
type Capability struct {
	// ID is the unique capability identifier (e.g., "database").
	ID string `yaml:"id"`
	// Name is the human-readable capability name.
	Name string `yaml:"name,omitempty"`
	// Keywords are matched against task text during assignment.
	Keywords []string `yaml:"keywords,omitempty"`
}

// Prompter resolves ambiguous assignments. Given a task and the candidate
// capability IDs, it returns the chosen ID. Implementations may block on
// human input, which is why the pipeline assigns strictly one task at a
// time.
type Prompter func(task *models.Task, candidates []string) (string, error)

// Registry holds the known capabilities and assigns them to tasks.
type Registry struct {
	mu           sync.RWMutex
	capabilities map[string]Capability
	// order preserves declaration order for deterministic matching.
	order []string

	// defaultID is assigned when no keywords match. Empty disables the
	// fallback, making unmatched tasks an assignment error.
	defaultID string
	// prompter disambiguates multi-candidate matches. Nil picks the first
	// candidate in declaration order.
	prompter Prompter
	// history records assignments, if configured.
	history *HistoryStore
}

// Option configures a Registry.
type Option func(*Registry)

// WithDefault sets the fallback capability for unmatched tasks.
func WithDefault(id string) Option {
	return func(r *Registry) { r.defaultID = id }
}

// WithPrompter sets the disambiguation hook for multi-candidate matches.
func WithPrompter(p Prompter) Option {
	return func(r *Registry) { r.prompter = p }
}

// WithHistory records every assignment to the given store.
func WithHistory(h *HistoryStore) Option {
	return func(r *Registry) { r.history = h }
}

// New creates a Registry with the given capabilities.
func New(capabilities []Capability, opts ...Option) *Registry {
	r := &Registry{
		capabilities: make(map[string]Capability, len(capabilities)),
	}
	for _, c := range capabilities {
		if _, dup := r.capabilities[c.ID]; dup {
			continue
		}
		r.capabilities[c.ID] = c
		r.order = append(r.order, c.ID)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Defaults returns the built-in capability set.
func Defaults() []Capability {
	return []Capability{
		{ID: "database", Keywords: []string{"database", "schema", "migration", "table", "query", "sql"}},
		{ID: "api", Keywords: []string{"api", "endpoint", "route", "handler", "rest"}},
		{ID: "ui", Keywords: []string{"ui", "frontend", "component", "styling", "css", "layout"}},
		{ID: "infrastructure", Keywords: []string{"infra", "infrastructure", "deploy", "deployment", "config", "monitoring"}},
		{ID: "test", Keywords: []string{"test", "tests", "coverage", "regression"}},
		{ID: "docs", Keywords: []string{"docs", "documentation", "readme", "comment"}},
		{ID: "review", Keywords: []string{"review", "audit", "security", "quality"}},
	}
}

// capabilityFile mirrors the on-disk capability definition layout.
type capabilityFile struct {
	Capabilities []Capability `yaml:"capabilities"`
	Default      string       `yaml:"default,omitempty"`
}

// LoadFile reads capability definitions from a YAML file and returns a
// Registry built from them, applying any additional options after the
// file's own default setting.
func LoadFile(path string, opts ...Option) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capability file: %w", err)
	}

	var file capabilityFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse capability file %s: %w", path, err)
	}

	all := opts
	if file.Default != "" {
		all = append([]Option{WithDefault(file.Default)}, opts...)
	}
	return New(file.Capabilities, all...), nil
}

// Exists reports whether the capability ID is known. Never fails.
func (r *Registry) Exists(capabilityID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.capabilities[capabilityID]
	return ok
}

// IDs returns the known capability IDs in declaration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.order...)
}

// Assign picks a capability for the task by keyword match over its title
// and description. A single candidate wins outright; multiple candidates
// go through the prompter when one is configured. With no candidates the
// configured default applies, or ErrNoMatch without one.
func (r *Registry) Assign(ctx context.Context, task *models.Task) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	candidates := r.match(task)

	var chosen string
	switch {
	case len(candidates) == 1:
		chosen = candidates[0]
	case len(candidates) > 1:
		if r.prompter != nil {
			picked, err := r.prompter(task, candidates)
			if err != nil {
				return "", fmt.Errorf("disambiguate task %s: %w", task.ID, err)
			}
			chosen = picked
		} else {
			chosen = candidates[0]
		}
	default:
		if r.defaultID == "" {
			return "", fmt.Errorf("%w: %s", ErrNoMatch, task.ID)
		}
		chosen = r.defaultID
	}

	if r.history != nil {
		if err := r.history.Record(task.ID, chosen); err != nil {
			// History is advisory; assignment still stands.
			return chosen, nil
		}
	}
	return chosen, nil
}

// match returns candidate capability IDs in declaration order.
func (r *Registry) match(task *models.Task) []string {
	text := strings.ToLower(task.Title + " " + task.Description)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []string
	for _, id := range r.order {
		for _, keyword := range r.capabilities[id].Keywords {
			if strings.Contains(text, strings.ToLower(keyword)) {
				candidates = append(candidates, id)
				break
			}
		}
	}
	return candidates
}
