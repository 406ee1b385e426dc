package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func registerValidateCommand(root *cobra.Command, a *app) {
	root.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate workflow definitions and their dependency graphs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.validate(cmd)
		},
	})
}

func (a *app) validate(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	o, err := a.orchestrator()
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "□ Validating definitions...")
	res, err := o.Build(cmd.Context())
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if len(res.Failures) > 0 {
		return fmt.Errorf("validation failed: %w", res.Failures)
	}

	fmt.Fprintf(out, "✓ %d workflows with %d units are valid\n", res.Registry.Len(), res.Registry.UnitCount())
	return nil
}
