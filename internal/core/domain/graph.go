// Package domain contains the core domain models of tend: tasks, the task
// graph, and the project layout they operate on.
package domain

import (
	"iter"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Graph represents a dependency graph of tasks.
//
// Two kinds of edges exist. Dependencies pull a task into every run of its
// dependent. After edges only order two tasks that are already part of the
// same run.
type Graph struct {
	root           string
	tasks          map[InternedString]Task
	dependents     map[InternedString][]InternedString
	executionOrder []InternedString
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		tasks:      make(map[InternedString]Task),
		dependents: make(map[InternedString][]InternedString),
	}
}

// SetRoot sets the project root directory the graph's paths are relative to.
func (g *Graph) SetRoot(root string) {
	g.root = root
}

// Root returns the project root directory.
func (g *Graph) Root() string {
	return g.root
}

// AddTask adds a task to the graph.
// It returns an error if a task with the same name already exists.
func (g *Graph) AddTask(t *Task) error {
	if _, exists := g.tasks[t.Name]; exists {
		return zerr.With(ErrTaskAlreadyExists, "task_name", t.Name.String())
	}
	g.tasks[t.Name] = *t
	g.executionOrder = nil
	return nil
}

// GetTask returns the task with the given name.
func (g *Graph) GetTask(name InternedString) (Task, bool) {
	t, ok := g.tasks[name]
	return t, ok
}

// TaskCount returns the number of tasks in the graph.
func (g *Graph) TaskCount() int {
	return len(g.tasks)
}

// Names returns all task names sorted alphabetically.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.tasks))
	for name := range g.tasks {
		names = append(names, name.String())
	}
	slices.Sort(names)
	return names
}

// Dependents returns the tasks that wait on name through either edge kind.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Dependents(name InternedString) []InternedString {
	return g.dependents[name]
}

// Validate checks that every edge points at a declared task and that the
// graph is acyclic. It populates the execution order and reverse edges.
func (g *Graph) Validate() error {
	order := make([]InternedString, 0, len(g.tasks))
	visited := make(map[InternedString]int) // 0: unvisited, 1: visiting, 2: visited
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		visited[u] = 1
		path = append(path, u)

		task := g.tasks[u]
		for _, dep := range edges(&task) {
			if _, exists := g.tasks[dep]; !exists {
				return zerr.With(zerr.With(ErrMissingDependency, "dependency", dep.String()), "task", u.String())
			}
			if visited[dep] == 1 {
				return buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		order = append(order, u)
		return nil
	}

	// Sorted iteration keeps Walk deterministic across runs.
	for _, name := range g.Names() {
		key := NewInternedString(name)
		if visited[key] == 0 {
			if err := visit(key); err != nil {
				return err
			}
		}
	}

	dependents := make(map[InternedString][]InternedString, len(g.tasks))
	for _, name := range order {
		task := g.tasks[name]
		for _, dep := range edges(&task) {
			if !slices.Contains(dependents[dep], name) {
				dependents[dep] = append(dependents[dep], name)
			}
		}
	}

	g.executionOrder = order
	g.dependents = dependents
	return nil
}

func edges(t *Task) []InternedString {
	out := make([]InternedString, 0, len(t.Dependencies)+len(t.After))
	out = append(out, t.Dependencies...)
	out = append(out, t.After...)
	return out
}

// buildCycleError constructs an error with cycle path metadata.
func buildCycleError(path []InternedString, dep InternedString) error {
	startIdx := slices.Index(path, dep)
	parts := make([]string, 0, len(path)-startIdx+1)
	for _, node := range path[startIdx:] {
		parts = append(parts, node.String())
	}
	parts = append(parts, dep.String())
	return zerr.With(ErrCycleDetected, "cycle", strings.Join(parts, " -> "))
}

// Walk returns an iterator that yields tasks in execution order.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[Task] {
	return func(yield func(Task) bool) {
		for _, name := range g.executionOrder {
			if !yield(g.tasks[name]) {
				return
			}
		}
	}
}
