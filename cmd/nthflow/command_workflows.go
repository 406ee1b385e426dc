package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sourceplane/nthflow/internal/flow"
	"github.com/sourceplane/nthflow/internal/model"
	"github.com/spf13/cobra"
)

func registerWorkflowsCommand(root *cobra.Command, a *app) {
	var longFormat bool

	cmd := &cobra.Command{
		Use:     "workflows [workflow]",
		Aliases: []string{"workflow"},
		Short:   "List and inspect workflows",
		Long:    "List all workflows found in the definitions. Use 'nthflow workflows <name>' for details.",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listWorkflows(cmd, args, longFormat)
		},
	}
	cmd.Flags().BoolVarP(&longFormat, "long", "l", false, "Show detailed information")

	root.AddCommand(cmd)
}

func (a *app) listWorkflows(cmd *cobra.Command, args []string, longFormat bool) error {
	out := cmd.OutOrStdout()

	o, err := a.orchestrator()
	if err != nil {
		return err
	}
	res, err := o.Build(cmd.Context())
	if err != nil {
		return err
	}

	if len(args) > 0 {
		matches := res.Registry.FindByName(args[0])
		if len(matches) == 0 {
			return fmt.Errorf("workflow not found: %s", args[0])
		}
		for _, wf := range matches {
			printWorkflow(out, wf, res)
		}
		return nil
	}

	fmt.Fprintln(out, "Available Workflows:")
	for _, wf := range res.Registry.Workflows() {
		if longFormat {
			printWorkflow(out, wf, res)
			continue
		}
		schedule := wf.Schedule
		if schedule == "" {
			schedule = "unscheduled"
		}
		fmt.Fprintf(out, "  %s [%s] %d units (%s)\n", wf.Name, schedule, len(wf.Units), wf.Source)
	}
	if !longFormat {
		fmt.Fprintln(out, "\nRun 'nthflow workflows <name>' for detailed information")
	}
	return nil
}

// printWorkflow shows one workflow with its units in rank order
func printWorkflow(out io.Writer, wf *model.WorkflowConfig, res *flow.Result) {
	fmt.Fprintf(out, "\n%s\n", wf.Name)
	fmt.Fprintf(out, "  ID: %s\n", wf.ID)
	fmt.Fprintf(out, "  Source: %s\n", wf.Source)
	fmt.Fprintf(out, "  Schedule: %s\n", wf.Schedule)
	fmt.Fprintf(out, "  Status: %s\n", wf.Status)

	if len(wf.DefaultParameters) > 0 {
		fmt.Fprintln(out, "  Default parameters:")
		keys := make([]string, 0, len(wf.DefaultParameters))
		for k := range wf.DefaultParameters {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "    %s: %v\n", k, wf.DefaultParameters[k])
		}
	}

	ranks, resolved := res.Ranks[wf.ID]
	units := make([]*model.UnitConfig, len(wf.Units))
	copy(units, wf.Units)
	if resolved {
		sort.SliceStable(units, func(i, j int) bool {
			return ranks[units[i].Name] < ranks[units[j].Name]
		})
	} else {
		for _, f := range res.Failures {
			if f.WorkflowID == wf.ID {
				fmt.Fprintf(out, "  Error: %v\n", f.Err)
			}
		}
	}

	fmt.Fprintf(out, "  Units (%d):\n", len(units))
	for _, u := range units {
		if resolved {
			fmt.Fprintf(out, "    %d. %s | %s\n", ranks[u.Name], u.Name, u.Command)
		} else {
			fmt.Fprintf(out, "    -  %s | %s\n", u.Name, u.Command)
		}
		if len(u.Dependencies) > 0 {
			fmt.Fprintf(out, "       Dependencies: %s\n", strings.Join(u.Dependencies, ", "))
		}
	}
}
