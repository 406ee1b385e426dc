package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sourceplane/nthflow/internal/flow"
	"github.com/sourceplane/nthflow/internal/model"
	"gopkg.in/yaml.v3"
)

const (
	APIVersion = "nthflow.io/v1"
	PlanKind   = "ExecutionPlan"
)

// Renderer turns a build result into a Plan
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderPlan creates a plan from a build result. Workflows keep registry
// order; units of resolved workflows are sorted by rank. Workflows that
// failed under isolation are kept with status FAILED, their units in
// declaration order with rank and stage -1.
func (r *Renderer) RenderPlan(definitions string, res *flow.Result) *model.Plan {
	plan := &model.Plan{
		APIVersion: APIVersion,
		Kind:       PlanKind,
		Metadata: model.PlanMetadata{
			Definitions: definitions,
			Workflows:   res.Registry.Len(),
			Units:       res.Registry.UnitCount(),
			Failed:      len(res.Failures),
		},
		Workflows: make([]model.PlanWorkflow, 0, res.Registry.Len()),
	}

	failed := make(map[string]string, len(res.Failures))
	for _, f := range res.Failures {
		failed[f.WorkflowID] = f.Err.Error()
	}

	for _, wf := range res.Registry.Workflows() {
		pw := model.PlanWorkflow{
			ID:                wf.ID,
			Name:              wf.Name,
			Source:            wf.Source,
			Schedule:          wf.Schedule,
			DefaultParameters: wf.DefaultParameters,
			Status:            wf.Status,
			Units:             make([]model.PlanUnit, 0, len(wf.Units)),
		}

		ranks, resolved := res.Ranks[wf.ID]
		stages := res.Stages[wf.ID]
		if msg, ok := failed[wf.ID]; ok || !resolved {
			pw.Status = model.StatusFailed
			pw.Error = msg
		}

		for _, u := range wf.Units {
			pu := r.convertUnit(u)
			if resolved {
				pu.Rank = ranks[u.Name]
				pu.Stage = stages[u.Name]
			} else {
				pu.Rank, pu.Stage = -1, -1
			}
			pw.Units = append(pw.Units, pu)
		}
		if resolved {
			sort.SliceStable(pw.Units, func(a, b int) bool {
				return pw.Units[a].Rank < pw.Units[b].Rank
			})
		}

		plan.Workflows = append(plan.Workflows, pw)
	}

	return plan
}

// convertUnit copies a unit into its plan form
func (r *Renderer) convertUnit(u *model.UnitConfig) model.PlanUnit {
	deps := make([]string, len(u.Dependencies))
	copy(deps, u.Dependencies)
	return model.PlanUnit{
		ID:           u.ID,
		Name:         u.Name,
		Command:      u.Command,
		Parameters:   u.Parameters,
		Dependencies: deps,
		Status:       u.Status,
	}
}

// RenderJSON renders plan as JSON
func (r *Renderer) RenderJSON(plan *model.Plan) ([]byte, error) {
	return json.MarshalIndent(plan, "", "  ")
}

// RenderYAML renders plan as YAML
func (r *Renderer) RenderYAML(plan *model.Plan) ([]byte, error) {
	return yaml.Marshal(plan)
}

// WritePlan writes plan to file (JSON or YAML based on extension)
func (r *Renderer) WritePlan(plan *model.Plan, path string) error {
	var data []byte
	var err error

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = r.RenderYAML(plan)
	default:
		data, err = r.RenderJSON(plan)
	}
	if err != nil {
		return fmt.Errorf("failed to render plan: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write plan to %s: %w", path, err)
	}
	return nil
}

// ReadPlan loads a plan written by WritePlan
func ReadPlan(path string) (*model.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file %s: %w", path, err)
	}

	var plan model.Plan
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("failed to parse YAML plan: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &plan); err != nil {
			if yamlErr := yaml.Unmarshal(data, &plan); yamlErr != nil {
				return nil, fmt.Errorf("failed to parse plan file as JSON or YAML: %w", err)
			}
		}
	}

	if plan.Kind != PlanKind {
		return nil, fmt.Errorf("%s is not an execution plan (kind %q)", path, plan.Kind)
	}
	return &plan, nil
}

// DebugDump outputs debug information about the plan
func (r *Renderer) DebugDump(plan *model.Plan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Plan: %s (%s)\n", plan.Kind, plan.Metadata.Definitions)
	fmt.Fprintf(&sb, "Workflows: %d, Units: %d\n\n", plan.Metadata.Workflows, plan.Metadata.Units)

	for _, wf := range plan.Workflows {
		fmt.Fprintf(&sb, "Workflow: %s (%s)\n", wf.Name, wf.ID)
		fmt.Fprintf(&sb, "  Source: %s\n", wf.Source)
		fmt.Fprintf(&sb, "  Schedule: %s\n", wf.Schedule)
		fmt.Fprintf(&sb, "  Status: %s\n", wf.Status)
		if wf.Error != "" {
			fmt.Fprintf(&sb, "  Error: %s\n", wf.Error)
		}
		for _, u := range wf.Units {
			fmt.Fprintf(&sb, "  Unit: %s rank=%d stage=%d dependsOn=%v\n", u.Name, u.Rank, u.Stage, u.Dependencies)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
