package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tcmartin/integrator/pkg/wizard"
)

func newWizardCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wizard",
		Short: "Create an integration step by step",
	}

	newWizard := func() (*wizard.Wizard, error) {
		helper, api, err := c.helper()
		if err != nil {
			return nil, err
		}
		return wizard.New(helper, api, c.in, c.out, c.logger), nil
	}

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Pick and configure the start connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newWizard()
			if err != nil {
				return err
			}
			if _, err := w.Start(commandContext(cmd)); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Start connection saved. Run 'integrator wizard finish' next.")
			return nil
		},
	}

	finishCmd := &cobra.Command{
		Use:   "finish",
		Short: "Pick the finish connection and name the integration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newWizard()
			if err != nil {
				return err
			}
			_, err = w.Finish(commandContext(cmd))
			return err
		},
	}

	cmd.AddCommand(startCmd, finishCmd)
	return cmd
}
