package model

import "fmt"

// Registry holds the workflows produced by one build pass, keyed by id.
// Iteration follows insertion order so downstream output is deterministic.
type Registry struct {
	order     []string
	workflows map[string]*WorkflowConfig
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		workflows: make(map[string]*WorkflowConfig),
	}
}

// Add inserts a workflow. Ids must be unique within a registry.
func (r *Registry) Add(wf *WorkflowConfig) error {
	if wf == nil {
		return fmt.Errorf("workflow cannot be nil")
	}
	if _, exists := r.workflows[wf.ID]; exists {
		return fmt.Errorf("duplicate workflow id %s (%s)", wf.ID, wf.Name)
	}
	r.workflows[wf.ID] = wf
	r.order = append(r.order, wf.ID)
	return nil
}

// Get returns the workflow with the given id
func (r *Registry) Get(id string) (*WorkflowConfig, bool) {
	wf, ok := r.workflows[id]
	return wf, ok
}

// Len returns the number of workflows
func (r *Registry) Len() int {
	return len(r.order)
}

// IDs returns workflow ids in insertion order
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Workflows returns workflows in insertion order
func (r *Registry) Workflows() []*WorkflowConfig {
	out := make([]*WorkflowConfig, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.workflows[id])
	}
	return out
}

// FindByName returns every workflow with the given name, in insertion order.
// Names are not unique across definition files.
func (r *Registry) FindByName(name string) []*WorkflowConfig {
	var out []*WorkflowConfig
	for _, id := range r.order {
		if wf := r.workflows[id]; wf.Name == name {
			out = append(out, wf)
		}
	}
	return out
}

// UnitCount returns the total number of units across all workflows
func (r *Registry) UnitCount() int {
	n := 0
	for _, wf := range r.workflows {
		n += len(wf.Units)
	}
	return n
}
