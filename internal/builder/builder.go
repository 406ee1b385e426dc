package builder

import (
	"fmt"

	"github.com/sourceplane/nthflow/internal/model"
)

// Builder turns raw definitions into a registry of workflow configs
type Builder struct {
	ids IDGenerator
}

// Option configures a Builder
type Option func(*Builder)

// WithIDGenerator replaces the default random identity allocation
func WithIDGenerator(g IDGenerator) Option {
	return func(b *Builder) {
		if g != nil {
			b.ids = g
		}
	}
}

// New creates a builder that allocates fresh random identities
func New(opts ...Option) *Builder {
	b := &Builder{ids: RandomIDs{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildAll constructs every definition and returns a new registry.
// The first malformed definition aborts the whole build.
func (b *Builder) BuildAll(defs []model.Definition) (*model.Registry, error) {
	registry := model.NewRegistry()

	for _, def := range defs {
		wf, err := b.BuildWorkflow(def)
		if err != nil {
			if def.Source != "" {
				return nil, fmt.Errorf("%s: %w", def.Source, err)
			}
			return nil, err
		}
		if err := registry.Add(wf); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// BuildWorkflow constructs a single workflow and its units
func (b *Builder) BuildWorkflow(def model.Definition) (*model.WorkflowConfig, error) {
	if def.Raw == nil {
		return nil, fmt.Errorf("workflow %q: %w: definition must be a mapping", def.Name, ErrInvalidField)
	}

	// Required keys are checked in this order so errors are reproducible
	for _, key := range []string{model.KeySchedule, model.KeyDefaultParameters, model.KeyTasks} {
		if _, ok := def.Raw[key]; !ok {
			return nil, &MissingFieldError{Workflow: def.Name, Index: -1, Field: key}
		}
	}

	schedule, err := optionalString(def.Raw[model.KeySchedule])
	if err != nil {
		return nil, fmt.Errorf("workflow %q field %q: %w", def.Name, model.KeySchedule, err)
	}

	defaults, err := optionalMap(def.Raw[model.KeyDefaultParameters])
	if err != nil {
		return nil, fmt.Errorf("workflow %q field %q: %w", def.Name, model.KeyDefaultParameters, err)
	}

	rawTasks, ok := def.Raw[model.KeyTasks].([]interface{})
	if !ok {
		return nil, fmt.Errorf("workflow %q field %q: %w: must be a list", def.Name, model.KeyTasks, ErrInvalidField)
	}

	workflowID := b.ids.WorkflowID(def)

	units := make([]*model.UnitConfig, 0, len(rawTasks))
	seen := make(map[string]int, len(rawTasks))
	for i, rawTask := range rawTasks {
		unit, err := b.buildUnit(def.Name, workflowID, i, rawTask)
		if err != nil {
			return nil, err
		}
		if first, dup := seen[unit.Name]; dup {
			return nil, fmt.Errorf("workflow %q: %w %q (tasks #%d and #%d)", def.Name, ErrDuplicateUnit, unit.Name, first+1, i+1)
		}
		seen[unit.Name] = i
		units = append(units, unit)
	}

	return model.NewWorkflowConfig(model.WorkflowConfig{
		ID:                workflowID,
		Name:              def.Name,
		Source:            def.Source,
		Schedule:          schedule,
		DefaultParameters: defaults,
		Units:             units,
	})
}

func (b *Builder) buildUnit(workflow, workflowID string, index int, raw interface{}) (*model.UnitConfig, error) {
	task, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("workflow %q task #%d: %w: must be a mapping", workflow, index+1, ErrInvalidField)
	}

	rawName, ok := task[model.KeyUnitName]
	if !ok {
		return nil, &MissingFieldError{Workflow: workflow, Index: index, Field: model.KeyUnitName}
	}
	name, ok := rawName.(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("workflow %q task #%d field %q: %w: must be a non-empty string", workflow, index+1, model.KeyUnitName, ErrInvalidField)
	}

	rawCommand, ok := task[model.KeyUnitCommand]
	if !ok {
		return nil, &MissingFieldError{Workflow: workflow, Unit: name, Index: index, Field: model.KeyUnitCommand}
	}
	command, ok := rawCommand.(string)
	if !ok {
		return nil, fmt.Errorf("workflow %q task %q field %q: %w: must be a string", workflow, name, model.KeyUnitCommand, ErrInvalidField)
	}

	params, err := optionalMap(task[model.KeyUnitParameters])
	if err != nil {
		return nil, fmt.Errorf("workflow %q task %q field %q: %w", workflow, name, model.KeyUnitParameters, err)
	}

	deps, err := optionalStrings(task[model.KeyUnitDependencies])
	if err != nil {
		return nil, fmt.Errorf("workflow %q task %q field %q: %w", workflow, name, model.KeyUnitDependencies, err)
	}

	return model.NewUnitConfig(model.UnitConfig{
		ID:           b.ids.UnitID(workflowID, name),
		WorkflowID:   workflowID,
		Name:         name,
		Command:      command,
		Parameters:   params,
		Dependencies: deps,
	})
}

// optionalString accepts a string or null
func optionalString(v interface{}) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	default:
		return "", fmt.Errorf("%w: must be a string, got %T", ErrInvalidField, v)
	}
}

// optionalMap accepts a mapping or null; null becomes an empty map
func optionalMap(v interface{}) (map[string]interface{}, error) {
	switch m := v.(type) {
	case nil:
		return make(map[string]interface{}), nil
	case map[string]interface{}:
		return m, nil
	default:
		return nil, fmt.Errorf("%w: must be a mapping, got %T", ErrInvalidField, v)
	}
}

// optionalStrings accepts a list of strings or null
func optionalStrings(v interface{}) ([]string, error) {
	if v == nil {
		return []string{}, nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: must be a list, got %T", ErrInvalidField, v)
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: item #%d must be a string, got %T", ErrInvalidField, i+1, item)
		}
		out = append(out, s)
	}
	return out, nil
}
