package planner

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCycleDetected means no unit became ready while units were still unresolved
	ErrCycleDetected = errors.New("cycle detected")
	// ErrUnknownDependency means a unit depends on a name that no unit in its workflow has
	ErrUnknownDependency = errors.New("unknown dependency")
	// ErrDuplicateUnit means two units passed to the resolver share a name
	ErrDuplicateUnit = errors.New("duplicate unit name")
)

// CycleError reports the residual graph left when elimination stalled
type CycleError struct {
	Order     []string            // residual unit names, declaration order
	Remaining map[string][]string // unit -> outstanding dependencies
	Cycle     []string            // one concrete cycle, first element repeated at the end
}

func (e *CycleError) Error() string {
	parts := make([]string, 0, len(e.Order))
	for _, name := range e.Order {
		parts = append(parts, fmt.Sprintf("%s: [%s]", name, strings.Join(e.Remaining[name], ", ")))
	}
	msg := fmt.Sprintf("%s for units {%s}", ErrCycleDetected, strings.Join(parts, "; "))
	if len(e.Cycle) > 0 {
		msg += " via " + strings.Join(e.Cycle, " -> ")
	}
	return msg
}

func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}

// UnknownDependencyError names the unit and the dangling reference.
// It also matches ErrCycleDetected: a dangling reference can never be
// satisfied, which is how callers that only know about cycles see it.
type UnknownDependencyError struct {
	Unit       string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("%s: unit %q depends on %q, which is not defined in this workflow", ErrUnknownDependency, e.Unit, e.Dependency)
}

func (e *UnknownDependencyError) Unwrap() error {
	return ErrUnknownDependency
}

func (e *UnknownDependencyError) Is(target error) bool {
	return target == ErrCycleDetected
}

// WorkflowError attaches the failing workflow's identity to a resolver error
type WorkflowError struct {
	WorkflowID string
	Workflow   string
	Err        error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("workflow %q (%s): %v", e.Workflow, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// BuildErrors collects per-workflow failures when resolution is isolated
type BuildErrors []*WorkflowError

func (e BuildErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d workflow(s) failed to resolve: %s", len(e), strings.Join(msgs, "; "))
}

func (e BuildErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, err := range e {
		errs[i] = err
	}
	return errs
}
