package planner

import (
	"fmt"

	"github.com/sourceplane/nthflow/internal/model"
)

// ResolveOrder returns unit names in a valid execution order.
// Units that become ready in the same round keep their declaration order.
func ResolveOrder(units []*model.UnitConfig) ([]string, error) {
	rounds, err := ResolveRounds(units)
	if err != nil {
		return nil, err
	}

	order := make([]string, 0, len(units))
	for _, round := range rounds {
		order = append(order, round...)
	}
	return order, nil
}

// ResolveRounds runs the elimination and returns each round's ready set.
// Every dependency must name a unit in units; otherwise an
// *UnknownDependencyError is returned before elimination starts.
func ResolveRounds(units []*model.UnitConfig) ([][]string, error) {
	declared := make(map[string]struct{}, len(units))
	for _, u := range units {
		if _, dup := declared[u.Name]; dup {
			return nil, fmt.Errorf("%w %q", ErrDuplicateUnit, u.Name)
		}
		declared[u.Name] = struct{}{}
	}

	for _, u := range units {
		for _, dep := range u.Dependencies {
			if _, ok := declared[dep]; !ok {
				return nil, &UnknownDependencyError{Unit: u.Name, Dependency: dep}
			}
		}
	}

	// Working copy: the caller's units are never touched
	pending := make(map[string]map[string]struct{}, len(units))
	for _, u := range units {
		pending[u.Name] = u.DependencySet()
	}

	rounds := make([][]string, 0)
	for len(pending) > 0 {
		ready := make([]string, 0)
		for _, u := range units {
			if deps, ok := pending[u.Name]; ok && len(deps) == 0 {
				ready = append(ready, u.Name)
			}
		}

		if len(ready) == 0 {
			return nil, newCycleError(units, pending)
		}

		for _, name := range ready {
			delete(pending, name)
		}
		for _, deps := range pending {
			for _, name := range ready {
				delete(deps, name)
			}
		}

		rounds = append(rounds, ready)
	}

	return rounds, nil
}

func newCycleError(units []*model.UnitConfig, pending map[string]map[string]struct{}) *CycleError {
	e := &CycleError{Remaining: make(map[string][]string, len(pending))}
	for _, u := range units {
		deps, ok := pending[u.Name]
		if !ok {
			continue
		}
		e.Order = append(e.Order, u.Name)
		e.Remaining[u.Name] = outstanding(u, deps)
	}
	e.Cycle = findCycle(e.Order, e.Remaining)
	return e
}

// outstanding keeps the unit's declared dependency order
func outstanding(u *model.UnitConfig, deps map[string]struct{}) []string {
	out := make([]string, 0, len(deps))
	for _, dep := range u.Dependencies {
		if _, ok := deps[dep]; ok {
			out = append(out, dep)
		}
	}
	return out
}

// findCycle walks the residual graph depth first and returns the first
// back edge it meets as a closed path.
func findCycle(order []string, edges map[string][]string) []string {
	visited := make(map[string]bool, len(order))
	onStack := make(map[string]int, len(order))
	stack := make([]string, 0, len(order))

	var visit func(node string) []string
	visit = func(node string) []string {
		visited[node] = true
		onStack[node] = len(stack)
		stack = append(stack, node)

		for _, dep := range edges[node] {
			if idx, ok := onStack[dep]; ok {
				cycle := append([]string{}, stack[idx:]...)
				return append(cycle, dep)
			}
			if !visited[dep] {
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}

		delete(onStack, node)
		stack = stack[:len(stack)-1]
		return nil
	}

	for _, node := range order {
		if !visited[node] {
			if cycle := visit(node); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}
