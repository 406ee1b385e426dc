package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sourceplane/nthflow/internal/model"
)

const rule = "═══════════════════════════════════════════════════════════\n"

// PlanViewer provides human-readable visualization of a plan
type PlanViewer struct {
	plan *model.Plan
}

// NewPlanViewer creates a new plan viewer
func NewPlanViewer(plan *model.Plan) *PlanViewer {
	return &PlanViewer{plan: plan}
}

// ViewDAG returns a tree of workflows, their stages and the units in each stage.
// Units of one stage have no dependencies on each other.
func (pv *PlanViewer) ViewDAG() string {
	if len(pv.plan.Workflows) == 0 {
		return "No workflows in plan"
	}

	var sb strings.Builder
	units := 0

	for i, wf := range pv.plan.Workflows {
		isLastWorkflow := i == len(pv.plan.Workflows)-1
		units += len(wf.Units)

		workflowPrefix := "├─ "
		connector := "│  "
		if isLastWorkflow {
			workflowPrefix = "└─ "
			connector = "   "
		}
		line := fmt.Sprintf("%s%s", workflowPrefix, wf.Name)
		if wf.Schedule != "" {
			line += fmt.Sprintf(" [%s]", wf.Schedule)
		}
		sb.WriteString(line + "\n")

		if wf.Status == model.StatusFailed {
			fmt.Fprintf(&sb, "%s└─ FAILED: %s\n", connector, wf.Error)
			continue
		}

		stages := groupByStage(wf.Units)
		for j, stage := range stages {
			isLastStage := j == len(stages)-1
			stagePrefix := connector + "├─ "
			stageConnector := connector + "│  "
			if isLastStage {
				stagePrefix = connector + "└─ "
				stageConnector = connector + "   "
			}
			fmt.Fprintf(&sb, "%sstage %d\n", stagePrefix, j)

			for k, u := range stage {
				unitPrefix := stageConnector + "├─ "
				if k == len(stage)-1 {
					unitPrefix = stageConnector + "└─ "
				}
				unitLine := fmt.Sprintf("%s%s", unitPrefix, u.Name)
				if u.Command != "" {
					unitLine += fmt.Sprintf(" | %s", truncate(u.Command, 60))
				}
				sb.WriteString(unitLine + "\n")
			}
		}
		sb.WriteString("\n")
	}

	sb.WriteString(rule)
	fmt.Fprintf(&sb, "Summary: %d workflows, %d units\n", len(pv.plan.Workflows), units)
	return sb.String()
}

// truncate shortens s to at most limit characters, never splitting a rune
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// groupByStage buckets units by stage, keeping rank order within a stage
func groupByStage(units []model.PlanUnit) [][]model.PlanUnit {
	var stages [][]model.PlanUnit
	for _, u := range units {
		if u.Stage < 0 {
			continue
		}
		for len(stages) <= u.Stage {
			stages = append(stages, nil)
		}
		stages[u.Stage] = append(stages[u.Stage], u)
	}
	return stages
}

// ViewDependencies shows unit dependencies per workflow
func (pv *PlanViewer) ViewDependencies() string {
	if len(pv.plan.Workflows) == 0 {
		return "No workflows in plan"
	}

	var sb strings.Builder
	sb.WriteString("Unit Dependencies\n")
	sb.WriteString(rule + "\n")

	for _, wf := range pv.plan.Workflows {
		fmt.Fprintf(&sb, "%s (%s)\n", wf.Name, wf.ID)

		for i, u := range wf.Units {
			prefix := "├─ "
			connector := "│ "
			if i == len(wf.Units)-1 {
				prefix = "└─ "
				connector = "  "
			}
			if u.Rank >= 0 {
				fmt.Fprintf(&sb, "%s%s (rank %d)\n", prefix, u.Name, u.Rank)
			} else {
				fmt.Fprintf(&sb, "%s%s\n", prefix, u.Name)
			}

			deps := make([]string, len(u.Dependencies))
			copy(deps, u.Dependencies)
			sort.Strings(deps)
			if len(deps) == 0 {
				fmt.Fprintf(&sb, "%s  (no dependencies)\n", connector)
				continue
			}
			for j, dep := range deps {
				depPrefix := connector + " ├─ "
				if j == len(deps)-1 {
					depPrefix = connector + " └─ "
				}
				fmt.Fprintf(&sb, "%s(depends on) %s\n", depPrefix, dep)
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
