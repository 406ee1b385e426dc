package model

import (
	"fmt"
	"time"
)

// Lifecycle holds the execution bookkeeping shared by workflows and units.
// The compiler never changes these after construction; an executor owns them.
type Lifecycle struct {
	StartTime  *time.Time `yaml:"startTime,omitempty" json:"startTime,omitempty"`
	EndTime    *time.Time `yaml:"endTime,omitempty" json:"endTime,omitempty"`
	Error      string     `yaml:"error,omitempty" json:"error,omitempty"`
	RetryCount int        `yaml:"retryCount" json:"retryCount"`
	Status     Status     `yaml:"status" json:"status"`
}

// normalize defaults an empty status and rejects unknown ones
func (l *Lifecycle) normalize() error {
	status, err := ParseStatus(string(l.Status))
	if err != nil {
		return err
	}
	l.Status = status
	if l.RetryCount < 0 {
		return fmt.Errorf("retry count must not be negative, got %d", l.RetryCount)
	}
	return nil
}

// UnitConfig is a single executable step within a workflow
type UnitConfig struct {
	ID           string                 `yaml:"id" json:"id"`
	WorkflowID   string                 `yaml:"workflowId" json:"workflowId"`
	Name         string                 `yaml:"name" json:"name"`
	Command      string                 `yaml:"command" json:"command"`
	Parameters   map[string]interface{} `yaml:"parameters" json:"parameters"`
	Dependencies []string               `yaml:"dependencies" json:"dependencies"` // set, declaration order

	Lifecycle `yaml:",inline"`
}

// NewUnitConfig validates u and returns a normalized copy.
// Dependencies are deduplicated, keeping first occurrence order.
func NewUnitConfig(u UnitConfig) (*UnitConfig, error) {
	if err := u.Lifecycle.normalize(); err != nil {
		return nil, fmt.Errorf("unit %q: %w", u.Name, err)
	}

	if u.Parameters == nil {
		u.Parameters = make(map[string]interface{})
	}

	deps := make([]string, 0, len(u.Dependencies))
	seen := make(map[string]struct{}, len(u.Dependencies))
	for _, dep := range u.Dependencies {
		if _, ok := seen[dep]; ok {
			continue
		}
		seen[dep] = struct{}{}
		deps = append(deps, dep)
	}
	u.Dependencies = deps

	return &u, nil
}

// DependencySet returns a fresh set of the unit's dependency names
func (u *UnitConfig) DependencySet() map[string]struct{} {
	set := make(map[string]struct{}, len(u.Dependencies))
	for _, dep := range u.Dependencies {
		set[dep] = struct{}{}
	}
	return set
}

// WorkflowConfig is one workflow (DAG) definition
type WorkflowConfig struct {
	ID                string                 `yaml:"id" json:"id"`
	Name              string                 `yaml:"name" json:"name"`
	Source            string                 `yaml:"source,omitempty" json:"source,omitempty"`
	Schedule          string                 `yaml:"schedule" json:"schedule"`
	DefaultParameters map[string]interface{} `yaml:"defaultParameters" json:"defaultParameters"`
	Units             []*UnitConfig          `yaml:"units" json:"units"`

	Lifecycle `yaml:",inline"`
}

// NewWorkflowConfig validates w and returns a normalized copy
func NewWorkflowConfig(w WorkflowConfig) (*WorkflowConfig, error) {
	if err := w.Lifecycle.normalize(); err != nil {
		return nil, fmt.Errorf("workflow %q: %w", w.Name, err)
	}
	if w.DefaultParameters == nil {
		w.DefaultParameters = make(map[string]interface{})
	}
	if w.Units == nil {
		w.Units = []*UnitConfig{}
	}
	return &w, nil
}

// Unit looks up a unit by name
func (w *WorkflowConfig) Unit(name string) (*UnitConfig, bool) {
	for _, u := range w.Units {
		if u.Name == name {
			return u, true
		}
	}
	return nil, false
}

// UnitNames returns unit names in declaration order
func (w *WorkflowConfig) UnitNames() []string {
	names := make([]string, len(w.Units))
	for i, u := range w.Units {
		names[i] = u.Name
	}
	return names
}
