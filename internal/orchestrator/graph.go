package orchestrator

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/cadence/pkg/models"
)

// DependencyGraph represents a directed graph of task dependencies.
// Tasks are nodes, and edges represent "waits on" relationships.
//
// Validation runs over a dense integer index assigned at Build time so
// the cycle check can keep its three-color state in flat arrays and walk
// an explicit stack instead of recursing.
type DependencyGraph struct {
	// tasks holds the nodes in declaration order.
	tasks []*models.Task
	// index maps task ID to its position in tasks.
	index map[string]int
	// adjacency maps each task index to the indices it depends on.
	adjacency [][]int
	// unknownRefs records dependency references to IDs absent from the
	// sprint, one entry per (task, missing dependency) pair.
	unknownRefs []string
	// strict controls whether unknown references are validation errors.
	// When false they are tolerated and skipped, matching the original
	// behavior of treating stale references as benign.
	strict bool
}

// NewDependencyGraph creates an empty graph. With strict set, dependency
// references to tasks absent from the sprint are reported as validation
// errors instead of being skipped.
func NewDependencyGraph(strict bool) *DependencyGraph {
	return &DependencyGraph{
		index:  make(map[string]int),
		strict: strict,
	}
}

// Build registers the tasks and their dependency edges. Duplicate task IDs
// are rejected since every check below assumes ID uniqueness. Unknown
// dependency references are recorded, not rejected; CheckCycles decides
// what to do with them based on the strict flag.
func (g *DependencyGraph) Build(tasks []*models.Task) error {
	g.tasks = tasks
	g.index = make(map[string]int, len(tasks))
	g.adjacency = make([][]int, len(tasks))
	g.unknownRefs = nil

	for i, task := range tasks {
		if _, dup := g.index[task.ID]; dup {
			return fmt.Errorf("duplicate task ID %q", task.ID)
		}
		g.index[task.ID] = i
	}

	for i, task := range tasks {
		for _, depID := range task.Dependencies {
			j, ok := g.index[depID]
			if !ok {
				g.unknownRefs = append(g.unknownRefs,
					fmt.Sprintf("task %s depends on unknown task %s", task.ID, depID))
				continue
			}
			g.adjacency[i] = append(g.adjacency[i], j)
		}
	}

	return nil
}

// CheckCapabilities verifies that every task with an assigned capability
// references one known to the registry. All violations are accumulated;
// the check never stops at the first failure.
func (g *DependencyGraph) CheckCapabilities(exists func(string) bool) models.ValidationResult {
	var errs []string
	for _, task := range g.tasks {
		if task.Capability == "" {
			continue
		}
		if !exists(task.Capability) {
			errs = append(errs, fmt.Sprintf("task %s references unknown capability %q", task.ID, task.Capability))
		}
	}
	return models.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Three-color DFS states.
const (
	colorUnvisited byte = iota
	colorInProgress
	colorDone
)

// CheckCycles detects circular dependencies. On finding a cycle it reports
// one cycle path: the traversal stack from the first entry of the repeated
// node to its second encounter. This is not necessarily the shortest cycle.
// Tasks are visited in declaration order, so the reported cycle is stable
// for a given sprint.
func (g *DependencyGraph) CheckCycles() models.ValidationResult {
	var errs []string
	if g.strict {
		errs = append(errs, g.unknownRefs...)
	}

	colors := make([]byte, len(g.tasks))

	for start := range g.tasks {
		if colors[start] != colorUnvisited {
			continue
		}
		if path := g.findCycleFrom(start, colors); path != nil {
			errs = append(errs, fmt.Sprintf("circular dependency detected: %s", strings.Join(path, " -> ")))
			break
		}
	}

	return models.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// frame is one level of the explicit DFS stack: a node and the position of
// the next edge to explore.
type frame struct {
	node int
	next int
}

// findCycleFrom runs an iterative DFS from start. Returns the cycle path as
// task IDs (first node repeated at the end) or nil when no cycle is
// reachable from start.
func (g *DependencyGraph) findCycleFrom(start int, colors []byte) []string {
	stack := []frame{{node: start}}
	colors[start] = colorInProgress

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(g.adjacency[top.node]) {
			dep := g.adjacency[top.node][top.next]
			top.next++

			switch colors[dep] {
			case colorInProgress:
				// Back edge: the stack from dep's frame onward is the cycle.
				var path []string
				for i := range stack {
					if stack[i].node == dep {
						for _, f := range stack[i:] {
							path = append(path, g.tasks[f.node].ID)
						}
						break
					}
				}
				path = append(path, g.tasks[dep].ID)
				return path
			case colorUnvisited:
				colors[dep] = colorInProgress
				stack = append(stack, frame{node: dep})
			}
			// colorDone: already explored, skip.
			continue
		}

		colors[top.node] = colorDone
		stack = stack[:len(stack)-1]
	}

	return nil
}

// TopologicalSort returns task IDs in an order where all dependencies come
// before the tasks that depend on them. Returns an error if the graph
// contains a cycle. Like the cycle check it walks an explicit stack, so
// arbitrarily deep chains cannot exhaust the goroutine stack.
func (g *DependencyGraph) TopologicalSort() ([]string, error) {
	if result := g.CheckCycles(); !result.Valid {
		return nil, fmt.Errorf("topological sort: %s", strings.Join(result.Errors, "; "))
	}

	visited := make([]bool, len(g.tasks))
	order := make([]string, 0, len(g.tasks))

	// Post-order over the dependency edges yields dependencies first:
	// a node's ID is appended when its frame is popped, after every
	// dependency has already been emitted.
	for start := range g.tasks {
		if visited[start] {
			continue
		}
		visited[start] = true
		stack := []frame{{node: start}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(g.adjacency[top.node]) {
				dep := g.adjacency[top.node][top.next]
				top.next++
				if !visited[dep] {
					visited[dep] = true
					stack = append(stack, frame{node: dep})
				}
				continue
			}

			order = append(order, g.tasks[top.node].ID)
			stack = stack[:len(stack)-1]
		}
	}

	return order, nil
}

// ParallelGroups partitions the tasks into execution waves: every task in a
// group depends only on tasks in earlier groups, so tasks within one group
// can run concurrently. Within a group, IDs keep declaration order. Returns
// an error if the graph contains a cycle.
func (g *DependencyGraph) ParallelGroups() ([][]string, error) {
	if result := g.CheckCycles(); !result.Valid {
		return nil, fmt.Errorf("parallel groups: %s", strings.Join(result.Errors, "; "))
	}

	completed := make(map[string]bool, len(g.tasks))
	var groups [][]string
	for len(completed) < len(g.tasks) {
		ready := g.ReadyTasks(completed)
		if len(ready) == 0 {
			break
		}
		groups = append(groups, ready)
		for _, id := range ready {
			completed[id] = true
		}
	}
	return groups, nil
}

// ReadyTasks returns IDs of tasks whose dependencies are all in the
// completed set and which are not themselves completed.
func (g *DependencyGraph) ReadyTasks(completed map[string]bool) []string {
	var ready []string
	for i, task := range g.tasks {
		if completed[task.ID] {
			continue
		}
		ok := true
		for _, dep := range g.adjacency[i] {
			if !completed[g.tasks[dep].ID] {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, task.ID)
		}
	}
	return ready
}

// Dependents returns the IDs of tasks that depend on the given task.
func (g *DependencyGraph) Dependents(taskID string) []string {
	target, ok := g.index[taskID]
	if !ok {
		return nil
	}
	var dependents []string
	for i := range g.tasks {
		for _, dep := range g.adjacency[i] {
			if dep == target {
				dependents = append(dependents, g.tasks[i].ID)
				break
			}
		}
	}
	return dependents
}

// Size returns the number of tasks in the graph.
func (g *DependencyGraph) Size() int {
	return len(g.tasks)
}

// ToDOT renders the graph in Graphviz DOT format for debugging.
func (g *DependencyGraph) ToDOT() string {
	var b strings.Builder
	b.WriteString("digraph sprint {\n")
	for _, task := range g.tasks {
		fmt.Fprintf(&b, "  %q;\n", task.ID)
	}
	for i := range g.tasks {
		for _, dep := range g.adjacency[i] {
			fmt.Fprintf(&b, "  %q -> %q;\n", g.tasks[i].ID, g.tasks[dep].ID)
		}
	}
	b.WriteString("}\n")
	return b.String()
}
