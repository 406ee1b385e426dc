package main

import (
	"fmt"

	"github.com/sourceplane/nthflow/internal/model"
	"github.com/sourceplane/nthflow/internal/render"
	"github.com/spf13/cobra"
)

func registerBuildCommand(root *cobra.Command, a *app) {
	var (
		view  string
		debug bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Resolve every workflow into execution ranks and write the plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.build(cmd, view, debug)
		},
	}

	flags := cmd.Flags()
	flags.StringP("output", "o", "", "Output plan file path (.json or .yaml); empty writes no file")
	flags.StringVar(&view, "view", "", "View plan (dag/dependencies)")
	flags.BoolVar(&debug, "debug", false, "Dump the rendered plan")
	flags.Bool("keep-going", false, "Leave failing workflows out of the rank table instead of aborting")
	flags.Bool("stable-ids", false, "Derive identities from file and names instead of random UUIDs")
	flags.Int("workers", 0, "Files parsed and workflows resolved concurrently (default: number of CPUs)")
	a.bindFlags(flags, map[string]string{
		"output":     "output",
		"keep-going": "keep_going",
		"stable-ids": "stable_ids",
		"workers":    "workers",
	})

	root.AddCommand(cmd)
}

func (a *app) build(cmd *cobra.Command, view string, debug bool) error {
	out := cmd.OutOrStdout()
	if err := checkView(view); err != nil {
		return err
	}

	o, err := a.orchestrator()
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "□ Loading definitions...")
	fmt.Fprintln(out, "□ Building workflows and resolving dependencies...")
	res, err := o.Build(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "□ Rendering plan...")
	renderer := render.NewRenderer()
	plan := renderer.RenderPlan(a.cfg.Definitions, res)
	if debug {
		fmt.Fprintln(out, "\n"+renderer.DebugDump(plan))
	}

	fmt.Fprintf(out, "✓ Resolved %d of %d workflows (%d units)\n", len(res.Ranks), res.Registry.Len(), res.Registry.UnitCount())
	if a.cfg.Output != "" {
		if err := renderer.WritePlan(plan, a.cfg.Output); err != nil {
			return fmt.Errorf("failed to write plan: %w", err)
		}
		fmt.Fprintf(out, "✓ Saved to: %s\n", a.cfg.Output)
	}

	if view != "" {
		fmt.Fprintln(out, "\n"+viewPlan(plan, view))
	}

	// excluded workflows still fail the run once the partial plan is out
	if len(res.Failures) > 0 {
		return res.Failures
	}
	return nil
}

func checkView(view string) error {
	switch view {
	case "", "dag", "dependencies":
		return nil
	default:
		return fmt.Errorf("unknown view %q (expected dag or dependencies)", view)
	}
}

func viewPlan(plan *model.Plan, view string) string {
	viewer := render.NewPlanViewer(plan)
	if view == "dependencies" {
		return viewer.ViewDependencies()
	}
	return viewer.ViewDAG()
}
