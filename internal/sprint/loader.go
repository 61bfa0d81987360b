// Package sprint loads and validates sprint plans from YAML files.
// The loader is the pipeline's sprint source collaborator: a missing plan
// file yields an empty sprint, while a malformed one yields a ParseError
// carrying location metadata for interactive correction.
package sprint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/cadence/pkg/models"
)

// ParseError is a structured source-format error from the Load stage.
type ParseError struct {
	// File is the plan path that failed to parse.
	File string
	// Line is the 1-based line of the failure, 0 when unknown.
	Line int
	// Column is the 1-based column of the failure, 0 when unknown.
	Column int
	// Msg is the underlying parser message.
	Msg string
}

// Error formats the parse error with whatever location data is available.
func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
	default:
		return fmt.Sprintf("%s: %s", e.File, e.Msg)
	}
}

// planFile mirrors the on-disk plan layout: sprint metadata under a
// top-level "sprint" key.
type planFile struct {
	Sprint models.Sprint `yaml:"sprint"`
}

// Loader reads sprint plans from the filesystem.
type Loader struct {
	// baseDir is prepended to relative plan refs. Empty means cwd.
	baseDir string
}

// NewLoader creates a Loader resolving relative refs against baseDir.
func NewLoader(baseDir string) *Loader {
	return &Loader{baseDir: baseDir}
}

// Load reads and parses the plan identified by ref. An absent file is not
// an error: it yields an empty sprint. Malformed YAML yields a *ParseError.
// Tasks parsed without a status default to pending.
func (l *Loader) Load(ref string) (*models.Sprint, error) {
	path := l.resolve(ref)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &models.Sprint{}, nil
		}
		return nil, fmt.Errorf("read plan %s: %w", path, err)
	}

	var plan planFile
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, toParseError(path, err)
	}

	for _, task := range plan.Sprint.Tasks {
		if task.Status == "" {
			task.Status = models.TaskStatusPending
		}
	}

	return &plan.Sprint, nil
}

// resolve joins ref onto the loader's base directory.
func (l *Loader) resolve(ref string) string {
	if l.baseDir == "" || filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(l.baseDir, ref)
}

// yamlLineRe extracts the line number yaml.v3 embeds in its messages,
// e.g. "yaml: line 4: mapping values are not allowed in this context".
var yamlLineRe = regexp.MustCompile(`line (\d+):\s*(.*)`)

// toParseError converts a yaml.v3 error into a ParseError, pulling line
// information out of the message where the parser provides it.
func toParseError(path string, err error) *ParseError {
	perr := &ParseError{File: path, Msg: err.Error()}

	var typeErr *yaml.TypeError
	msg := err.Error()
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		msg = typeErr.Errors[0]
	}

	if m := yamlLineRe.FindStringSubmatch(msg); m != nil {
		if line, convErr := strconv.Atoi(m[1]); convErr == nil {
			perr.Line = line
			perr.Msg = m[2]
		}
	}

	return perr
}

// Validate runs plan-level semantic checks, accumulating every violation
// rather than stopping at the first: duplicate task IDs, approval gates
// referencing unknown tasks, and unparseable duration estimates.
// Dependency cycles and capability existence are checked later by the
// pipeline's validators, not here.
func Validate(plan *models.Sprint) models.ValidationResult {
	var errs []string

	seen := make(map[string]bool, len(plan.Tasks))
	for _, task := range plan.Tasks {
		if task.ID == "" {
			errs = append(errs, fmt.Sprintf("task %q has no ID", task.Title))
			continue
		}
		if seen[task.ID] {
			errs = append(errs, fmt.Sprintf("duplicate task ID %q", task.ID))
		}
		seen[task.ID] = true
	}

	for _, task := range plan.Tasks {
		if task.Duration != "" && models.ParseDuration(task.Duration) == 0 {
			errs = append(errs, fmt.Sprintf("task %s has invalid duration %q", task.ID, task.Duration))
		}
	}
	if plan.Duration != "" && models.ParseDuration(plan.Duration) == 0 {
		errs = append(errs, fmt.Sprintf("sprint has invalid duration %q", plan.Duration))
	}

	for _, gate := range plan.ApprovalGates {
		for _, required := range gate.Requires {
			if !seen[required] {
				errs = append(errs, fmt.Sprintf("approval gate %q requires unknown task %q", gate.Stage, required))
			}
		}
	}

	return models.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
