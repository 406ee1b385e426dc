package planner

import (
	"sort"

	"github.com/sourceplane/nthflow/internal/model"
)

// DependencyIndex answers upstream/downstream questions about one workflow
type DependencyIndex struct {
	deps       map[string][]string
	dependents map[string][]string
}

// NewDependencyIndex indexes the units of a workflow
func NewDependencyIndex(wf *model.WorkflowConfig) *DependencyIndex {
	idx := &DependencyIndex{
		deps:       make(map[string][]string, len(wf.Units)),
		dependents: make(map[string][]string, len(wf.Units)),
	}
	for _, u := range wf.Units {
		idx.deps[u.Name] = append([]string{}, u.Dependencies...)
		for _, dep := range u.Dependencies {
			idx.dependents[dep] = append(idx.dependents[dep], u.Name)
		}
	}
	return idx
}

// Has reports whether the workflow defines a unit with this name
func (di *DependencyIndex) Has(name string) bool {
	_, ok := di.deps[name]
	return ok
}

// Dependencies returns the direct dependencies of a unit
func (di *DependencyIndex) Dependencies(name string) []string {
	return sorted(di.deps[name])
}

// Dependents returns the units that list name as a direct dependency
func (di *DependencyIndex) Dependents(name string) []string {
	return sorted(di.dependents[name])
}

// TransitiveDependencies returns everything that must run before name
func (di *DependencyIndex) TransitiveDependencies(name string) []string {
	return di.walk(name, di.deps)
}

// TransitiveDependents returns everything that waits on name, directly or not
func (di *DependencyIndex) TransitiveDependents(name string) []string {
	return di.walk(name, di.dependents)
}

// walk is cycle safe; a unit reachable from itself is reported as well
func (di *DependencyIndex) walk(start string, edges map[string][]string) []string {
	result := make(map[string]bool)
	visited := make(map[string]bool)

	var traverse func(string)
	traverse = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true

		for _, next := range edges[name] {
			result[next] = true
			traverse(next)
		}
	}

	traverse(start)

	out := make([]string, 0, len(result))
	for name := range result {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func sorted(in []string) []string {
	out := append([]string{}, in...)
	sort.Strings(out)
	return out
}
