package main

import (
	"fmt"

	"github.com/sourceplane/nthflow/internal/render"
	"github.com/spf13/cobra"
)

func registerShowCommand(root *cobra.Command, a *app) {
	var view string

	cmd := &cobra.Command{
		Use:   "show <plan-file>",
		Short: "Display a previously written plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkView(view); err != nil {
				return err
			}
			plan, err := render.ReadPlan(args[0])
			if err != nil {
				return err
			}
			a.logger.Debug("read plan", "path", args[0], "workflows", len(plan.Workflows))
			fmt.Fprintln(cmd.OutOrStdout(), viewPlan(plan, view))
			return nil
		},
	}
	cmd.Flags().StringVar(&view, "view", "dag", "View plan (dag/dependencies)")

	root.AddCommand(cmd)
}
