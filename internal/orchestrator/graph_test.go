package orchestrator

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ShayCichocki/cadence/pkg/models"
)

func taskWithDeps(id string, deps ...string) *models.Task {
	return &models.Task{ID: id, Title: id, Dependencies: deps}
}

func buildGraph(t *testing.T, strict bool, tasks ...*models.Task) *DependencyGraph {
	t.Helper()
	g := NewDependencyGraph(strict)
	if err := g.Build(tasks); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return g
}

func TestCheckCyclesAcyclic(t *testing.T) {
	g := buildGraph(t, false,
		taskWithDeps("a"),
		taskWithDeps("b", "a"),
		taskWithDeps("c", "a", "b"),
		taskWithDeps("d", "c"),
	)

	res := g.CheckCycles()
	if !res.Valid {
		t.Errorf("expected valid graph, got errors: %v", res.Errors)
	}
}

func TestCheckCyclesDetectsCycle(t *testing.T) {
	g := buildGraph(t, false,
		taskWithDeps("a", "c"),
		taskWithDeps("b", "a"),
		taskWithDeps("c", "b"),
	)

	res := g.CheckCycles()
	if res.Valid {
		t.Fatal("expected cycle to be detected")
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %v", res.Errors)
	}

	msg := res.Errors[0]
	if !strings.HasPrefix(msg, "circular dependency detected: ") {
		t.Errorf("unexpected error message: %q", msg)
	}
	for _, id := range []string{"a", "b", "c"} {
		if !strings.Contains(msg, id) {
			t.Errorf("cycle path %q missing task %s", msg, id)
		}
	}
}

func TestCheckCyclesSelfLoop(t *testing.T) {
	g := buildGraph(t, false, taskWithDeps("a", "a"))

	res := g.CheckCycles()
	if res.Valid {
		t.Fatal("expected self-dependency to be a cycle")
	}
	if !strings.Contains(res.Errors[0], "a -> a") {
		t.Errorf("self loop path = %q, want to contain %q", res.Errors[0], "a -> a")
	}
}

func TestCheckCyclesReportsClosedPath(t *testing.T) {
	// The reported path must start and end at the same task.
	g := buildGraph(t, false,
		taskWithDeps("x", "y"),
		taskWithDeps("y", "x"),
	)

	res := g.CheckCycles()
	if res.Valid {
		t.Fatal("expected cycle")
	}
	path := strings.TrimPrefix(res.Errors[0], "circular dependency detected: ")
	parts := strings.Split(path, " -> ")
	if len(parts) < 3 {
		t.Fatalf("path too short: %q", path)
	}
	if parts[0] != parts[len(parts)-1] {
		t.Errorf("path %q does not return to its start", path)
	}
}

func TestCheckCyclesDeepChain(t *testing.T) {
	// A long linear chain must not overflow anything.
	const n = 50000
	tasks := make([]*models.Task, n)
	tasks[0] = taskWithDeps("task_0")
	for i := 1; i < n; i++ {
		tasks[i] = taskWithDeps(fmt.Sprintf("task_%d", i), fmt.Sprintf("task_%d", i-1))
	}

	g := buildGraph(t, false, tasks...)
	res := g.CheckCycles()
	if !res.Valid {
		t.Errorf("expected deep chain to be valid, got %v", res.Errors)
	}
}

func TestBuildRejectsDuplicateIDs(t *testing.T) {
	g := NewDependencyGraph(false)
	err := g.Build([]*models.Task{taskWithDeps("a"), taskWithDeps("a")})
	if err == nil {
		t.Fatal("expected duplicate ID error")
	}
	if !strings.Contains(err.Error(), "a") {
		t.Errorf("error %q should name the duplicate ID", err)
	}
}

func TestUnknownDependencyTolerant(t *testing.T) {
	g := buildGraph(t, false,
		taskWithDeps("a", "ghost"),
		taskWithDeps("b", "a"),
	)

	res := g.CheckCycles()
	if !res.Valid {
		t.Errorf("tolerant mode should skip unknown refs, got %v", res.Errors)
	}
}

func TestUnknownDependencyStrict(t *testing.T) {
	g := buildGraph(t, true,
		taskWithDeps("a", "ghost"),
		taskWithDeps("b", "a"),
	)

	res := g.CheckCycles()
	if res.Valid {
		t.Fatal("strict mode should report unknown refs")
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %v", res.Errors)
	}
	if !strings.Contains(res.Errors[0], "ghost") {
		t.Errorf("error %q should name the missing dependency", res.Errors[0])
	}
}

func TestCheckCapabilitiesAccumulatesAllErrors(t *testing.T) {
	tasks := []*models.Task{
		{ID: "t1", Capability: "database"},
		{ID: "t2", Capability: "quantum"},
		{ID: "t3", Capability: "api"},
		{ID: "t4", Capability: "warp-drive"},
		{ID: "t5"}, // unassigned, always fine
	}
	g := buildGraph(t, false, tasks...)

	known := map[string]bool{"database": true, "api": true}
	res := g.CheckCapabilities(func(id string) bool { return known[id] })
	if res.Valid {
		t.Fatal("expected capability errors")
	}
	if len(res.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(res.Errors), res.Errors)
	}
	joined := strings.Join(res.Errors, "\n")
	for _, want := range []string{"t2", "quantum", "t4", "warp-drive"} {
		if !strings.Contains(joined, want) {
			t.Errorf("errors %q missing %q", joined, want)
		}
	}
}

func TestTopologicalSort(t *testing.T) {
	g := buildGraph(t, false,
		taskWithDeps("d", "b", "c"),
		taskWithDeps("b", "a"),
		taskWithDeps("c", "a"),
		taskWithDeps("a"),
	)

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort failed: %v", err)
	}
	if len(order) != 4 {
		t.Fatalf("order = %v, want 4 tasks", order)
	}

	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	deps := map[string][]string{"b": {"a"}, "c": {"a"}, "d": {"b", "c"}}
	for id, ds := range deps {
		for _, dep := range ds {
			if pos[dep] > pos[id] {
				t.Errorf("order %v places %s after %s", order, dep, id)
			}
		}
	}
}

func TestTopologicalSortFailsOnCycle(t *testing.T) {
	g := buildGraph(t, false,
		taskWithDeps("a", "b"),
		taskWithDeps("b", "a"),
	)
	if _, err := g.TopologicalSort(); err == nil {
		t.Error("expected error for cyclic graph")
	}
}

func TestTopologicalSortDeepChain(t *testing.T) {
	// A long linear chain must sort without overflowing anything, and the
	// chain root must come out first.
	const n = 50000
	tasks := make([]*models.Task, n)
	tasks[0] = taskWithDeps("task_0")
	for i := 1; i < n; i++ {
		tasks[i] = taskWithDeps(fmt.Sprintf("task_%d", i), fmt.Sprintf("task_%d", i-1))
	}

	g := buildGraph(t, false, tasks...)
	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort failed: %v", err)
	}
	if len(order) != n {
		t.Fatalf("order has %d tasks, want %d", len(order), n)
	}
	if order[0] != "task_0" || order[n-1] != fmt.Sprintf("task_%d", n-1) {
		t.Errorf("chain sorted out of order: first=%s last=%s", order[0], order[n-1])
	}
}

func TestParallelGroups(t *testing.T) {
	g := buildGraph(t, false,
		taskWithDeps("a"),
		taskWithDeps("b", "a"),
		taskWithDeps("c", "a"),
		taskWithDeps("d", "b", "c"),
	)

	groups, err := g.ParallelGroups()
	if err != nil {
		t.Fatalf("ParallelGroups failed: %v", err)
	}
	want := [][]string{{"a"}, {"b", "c"}, {"d"}}
	if len(groups) != len(want) {
		t.Fatalf("groups = %v, want %v", groups, want)
	}
	for i := range want {
		if len(groups[i]) != len(want[i]) {
			t.Fatalf("group %d = %v, want %v", i, groups[i], want[i])
		}
		for j := range want[i] {
			if groups[i][j] != want[i][j] {
				t.Errorf("group %d = %v, want %v", i, groups[i], want[i])
			}
		}
	}
}

func TestParallelGroupsFailsOnCycle(t *testing.T) {
	g := buildGraph(t, false,
		taskWithDeps("a", "b"),
		taskWithDeps("b", "a"),
	)
	if _, err := g.ParallelGroups(); err == nil {
		t.Error("expected error for cyclic graph")
	}
}

func TestReadyTasks(t *testing.T) {
	g := buildGraph(t, false,
		taskWithDeps("a"),
		taskWithDeps("b", "a"),
		taskWithDeps("c", "a"),
		taskWithDeps("d", "b", "c"),
	)

	ready := g.ReadyTasks(map[string]bool{})
	if len(ready) != 1 || ready[0] != "a" {
		t.Errorf("ReadyTasks(∅) = %v, want [a]", ready)
	}

	ready = g.ReadyTasks(map[string]bool{"a": true})
	if len(ready) != 2 {
		t.Errorf("ReadyTasks({a}) = %v, want [b c]", ready)
	}

	ready = g.ReadyTasks(map[string]bool{"a": true, "b": true, "c": true, "d": true})
	if len(ready) != 0 {
		t.Errorf("ReadyTasks(all) = %v, want none", ready)
	}
}

func TestDependents(t *testing.T) {
	g := buildGraph(t, false,
		taskWithDeps("a"),
		taskWithDeps("b", "a"),
		taskWithDeps("c", "a"),
		taskWithDeps("d", "b"),
	)

	deps := g.Dependents("a")
	if len(deps) != 2 {
		t.Errorf("Dependents(a) = %v, want [b c]", deps)
	}
	if got := g.Dependents("d"); len(got) != 0 {
		t.Errorf("Dependents(d) = %v, want none", got)
	}
	if got := g.Dependents("ghost"); got != nil {
		t.Errorf("Dependents(ghost) = %v, want nil", got)
	}
}

func TestToDOT(t *testing.T) {
	g := buildGraph(t, false,
		taskWithDeps("a"),
		taskWithDeps("b", "a"),
	)

	dot := g.ToDOT()
	for _, want := range []string{"digraph sprint {", `"a";`, `"b" -> "a";`} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing %q:\n%s", want, dot)
		}
	}
}
