package builder

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is matched by every *MissingFieldError
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidField means a key is present but holds the wrong kind of value
	ErrInvalidField = errors.New("invalid field")
	// ErrDuplicateUnit means two units in one workflow share a name
	ErrDuplicateUnit = errors.New("duplicate unit name")
)

// MissingFieldError names the workflow, the unit (if any) and the absent key
type MissingFieldError struct {
	Workflow string
	Unit     string // unit name when known
	Index    int    // zero-based position in tasks, -1 for workflow-level keys
	Field    string
}

func (e *MissingFieldError) Error() string {
	switch {
	case e.Index < 0:
		return fmt.Sprintf("workflow %q: %s %q", e.Workflow, ErrMissingField, e.Field)
	case e.Unit != "":
		return fmt.Sprintf("workflow %q task %q: %s %q", e.Workflow, e.Unit, ErrMissingField, e.Field)
	default:
		return fmt.Sprintf("workflow %q task #%d: %s %q", e.Workflow, e.Index+1, ErrMissingField, e.Field)
	}
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}
