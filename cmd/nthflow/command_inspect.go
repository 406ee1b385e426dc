package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/sourceplane/nthflow/internal/planner"
	"github.com/spf13/cobra"
)

func registerInspectCommand(root *cobra.Command, a *app) {
	root.AddCommand(&cobra.Command{
		Use:   "inspect <workflow> <unit>",
		Short: "Show the units a unit depends on and the units depending on it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.inspect(cmd, args[0], args[1])
		},
	})
}

func (a *app) inspect(cmd *cobra.Command, workflow, unit string) error {
	out := cmd.OutOrStdout()

	o, err := a.orchestrator()
	if err != nil {
		return err
	}
	res, err := o.Build(cmd.Context())
	if err != nil {
		return err
	}

	matches := res.Registry.FindByName(workflow)
	if len(matches) == 0 {
		return fmt.Errorf("workflow not found: %s", workflow)
	}

	found := false
	for _, wf := range matches {
		index := planner.NewDependencyIndex(wf)
		if !index.Has(unit) {
			continue
		}
		found = true

		fmt.Fprintf(out, "%s/%s (%s)\n", wf.Name, unit, wf.Source)
		if rank, ok := res.Ranks[wf.ID][unit]; ok {
			fmt.Fprintf(out, "  Rank: %d, Stage: %d\n", rank, res.Stages[wf.ID][unit])
		}
		printNames(out, "Depends on", index.Dependencies(unit))
		printNames(out, "All upstream", index.TransitiveDependencies(unit))
		printNames(out, "Required by", index.Dependents(unit))
		printNames(out, "All downstream", index.TransitiveDependents(unit))
	}

	if !found {
		return fmt.Errorf("unit %s not found in workflow %s", unit, workflow)
	}
	return nil
}

func printNames(out io.Writer, label string, names []string) {
	if len(names) == 0 {
		fmt.Fprintf(out, "  %s: (none)\n", label)
		return
	}
	fmt.Fprintf(out, "  %s: %s\n", label, strings.Join(names, ", "))
}
