package sprint

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ShayCichocki/cadence/pkg/models"
)

func writePlan(t *testing.T, content string) (dir, name string) {
	t.Helper()
	dir = t.TempDir()
	name = "sprint.yaml"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write plan: %v", err)
	}
	return dir, name
}

func TestLoadPlan(t *testing.T) {
	dir, name := writePlan(t, `
sprint:
  name: Payments Sprint
  version: "1.2"
  duration: 2 weeks
  goals:
    - Ship the payment flow
  tasks:
    - id: task_1
      title: Create payment schema
      description: Design the payments table
      duration: 1 day
      acceptance_criteria:
        - Migration applies cleanly
      files:
        - migrations/001_payments.sql
    - id: task_2
      title: Build payment endpoint
      dependencies: [task_1]
      status: in_progress
  approval_gates:
    - stage: pre-merge
      requires: [task_1]
      message: Schema review required
`)

	plan, err := NewLoader(dir).Load(name)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if plan.Name != "Payments Sprint" {
		t.Errorf("Name = %q", plan.Name)
	}
	if plan.Version != "1.2" {
		t.Errorf("Version = %q", plan.Version)
	}
	if len(plan.Tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(plan.Tasks))
	}

	first := plan.Tasks[0]
	if first.ID != "task_1" || first.Title != "Create payment schema" {
		t.Errorf("first task = %+v", first)
	}
	if len(first.AcceptanceCriteria) != 1 || len(first.Files) != 1 {
		t.Errorf("first task criteria/files = %v / %v", first.AcceptanceCriteria, first.Files)
	}
	// Missing status defaults to pending.
	if first.Status != models.TaskStatusPending {
		t.Errorf("first task status = %q, want pending", first.Status)
	}
	if plan.Tasks[1].Status != models.TaskStatusInProgress {
		t.Errorf("second task status = %q, want in_progress", plan.Tasks[1].Status)
	}
	if len(plan.Tasks[1].Dependencies) != 1 || plan.Tasks[1].Dependencies[0] != "task_1" {
		t.Errorf("second task dependencies = %v", plan.Tasks[1].Dependencies)
	}

	if len(plan.ApprovalGates) != 1 || plan.ApprovalGates[0].Stage != "pre-merge" {
		t.Errorf("approval gates = %+v", plan.ApprovalGates)
	}
}

func TestLoadMissingFileYieldsEmptySprint(t *testing.T) {
	plan, err := NewLoader(t.TempDir()).Load("nope.yaml")
	if err != nil {
		t.Fatalf("missing file should not error, got %v", err)
	}
	if plan == nil || len(plan.Tasks) != 0 {
		t.Errorf("plan = %+v, want empty sprint", plan)
	}
}

func TestLoadResolvesRefsAgainstBaseDir(t *testing.T) {
	dir, name := writePlan(t, "sprint:\n  name: Resolved\n")

	// A relative ref joins onto the base directory, including refs with
	// their own path segments.
	plan, err := NewLoader(dir).Load(filepath.Join(".", name))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if plan.Name != "Resolved" {
		t.Errorf("Name = %q, want Resolved", plan.Name)
	}

	// An absolute ref ignores the base directory entirely.
	plan, err = NewLoader(t.TempDir()).Load(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("Load with absolute ref failed: %v", err)
	}
	if plan.Name != "Resolved" {
		t.Errorf("Name = %q, want Resolved", plan.Name)
	}
}

func TestLoadMalformedYAMLReturnsParseError(t *testing.T) {
	dir, name := writePlan(t, "sprint:\n  name: broken\n  tasks: [\n")

	_, err := NewLoader(dir).Load(name)
	if err == nil {
		t.Fatal("expected parse error")
	}

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error %T is not a *ParseError", err)
	}
	if !strings.HasSuffix(perr.File, name) {
		t.Errorf("ParseError.File = %q, want suffix %q", perr.File, name)
	}
	if perr.Msg == "" {
		t.Error("ParseError.Msg is empty")
	}
}

func TestLoadExtractsLineFromYAMLError(t *testing.T) {
	// Line 3 has an indentation problem yaml.v3 reports with a line number.
	dir, name := writePlan(t, "sprint:\n  name: ok\n bad_indent: true\n")

	_, err := NewLoader(dir).Load(name)
	if err == nil {
		t.Fatal("expected parse error")
	}

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error %T is not a *ParseError", err)
	}
	if perr.Line == 0 {
		t.Errorf("ParseError.Line = 0, want the reported line; message %q", perr.Msg)
	}
	if !strings.Contains(perr.Error(), name+":") {
		t.Errorf("Error() = %q, want file:line prefix", perr.Error())
	}
}

func TestParseErrorFormat(t *testing.T) {
	tests := []struct {
		err  ParseError
		want string
	}{
		{ParseError{File: "a.yaml", Line: 4, Column: 2, Msg: "bad"}, "a.yaml:4:2: bad"},
		{ParseError{File: "a.yaml", Line: 4, Msg: "bad"}, "a.yaml:4: bad"},
		{ParseError{File: "a.yaml", Msg: "bad"}, "a.yaml: bad"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestValidateAccumulatesAllErrors(t *testing.T) {
	plan := &models.Sprint{
		Duration: "whenever",
		Tasks: []*models.Task{
			{ID: "t1", Title: "ok", Duration: "2 hours"},
			{ID: "t1", Title: "duplicate"},
			{ID: "", Title: "nameless"},
			{ID: "t2", Title: "bad duration", Duration: "soonish"},
		},
		ApprovalGates: []models.ApprovalGate{
			{Stage: "review", Requires: []string{"t1", "ghost"}},
		},
	}

	result := Validate(plan)
	if result.Valid {
		t.Fatal("expected validation errors")
	}

	joined := strings.Join(result.Errors, "\n")
	for _, want := range []string{
		`duplicate task ID "t1"`,
		`has no ID`,
		`invalid duration "soonish"`,
		`sprint has invalid duration "whenever"`,
		`requires unknown task "ghost"`,
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("errors missing %q:\n%s", want, joined)
		}
	}
	if len(result.Errors) != 5 {
		t.Errorf("got %d errors, want 5:\n%s", len(result.Errors), joined)
	}
}

func TestValidateCleanPlan(t *testing.T) {
	plan := &models.Sprint{
		Duration: "2 weeks",
		Tasks: []*models.Task{
			{ID: "t1", Title: "one", Duration: "1 day"},
			{ID: "t2", Title: "two"},
		},
		ApprovalGates: []models.ApprovalGate{
			{Stage: "review", Requires: []string{"t1", "t2"}},
		},
	}

	result := Validate(plan)
	if !result.Valid {
		t.Errorf("expected valid plan, got %v", result.Errors)
	}
}
