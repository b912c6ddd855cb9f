package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tcmartin/integrator/pkg/loader"
	"github.com/tcmartin/integrator/pkg/models"
)

func newIntegrationCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "integration",
		Aliases: []string{"integrations"},
		Short:   "Manage integrations",
	}

	var tag, query string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List integrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			integrations, err := api.SearchIntegrations(commandContext(cmd), tag, query)
			if err != nil {
				return fmt.Errorf("failed to list integrations: %w", err)
			}
			if len(integrations) == 0 {
				fmt.Fprintln(c.out, "No integrations found")
				return nil
			}
			rows := make([][]string, 0, len(integrations))
			for _, in := range integrations {
				rows = append(rows, []string{in.ID, in.Name, strconv.Itoa(in.Version), strings.Join(in.Tags, ",")})
			}
			return printTable(c.out, []string{"ID", "NAME", "VERSION", "TAGS"}, rows)
		},
	}
	listCmd.Flags().StringVar(&tag, "tag", "", "Only integrations tagged with this connection id")
	listCmd.Flags().StringVarP(&query, "query", "q", "", "Only integrations whose name matches")

	var format string
	getCmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show an integration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			in, err := api.GetIntegration(commandContext(cmd), args[0])
			if err != nil {
				return fmt.Errorf("failed to get integration %s: %w", args[0], err)
			}
			return printDocument(c.out, format, in)
		},
	}
	getCmd.Flags().StringVarP(&format, "output", "o", formatJSON, "Output format: json or yaml")

	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Create an integration from a YAML definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := loader.LoadFile(c.fs, loader.NewYAMLLoader(), args[0])
			if err != nil {
				return err
			}
			helper, _, err := c.helper()
			if err != nil {
				return err
			}
			saved, err := helper.SaveIntegration(commandContext(cmd), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Integration %s created\n", saved.ID)
			return nil
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export [id] [file]",
		Short: "Write an integration as a YAML definition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			in, err := api.GetIntegration(commandContext(cmd), args[0])
			if err != nil {
				return fmt.Errorf("failed to get integration %s: %w", args[0], err)
			}
			if err := loader.SaveFile(c.fs, loader.NewYAMLLoader(), args[1], in); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Integration %s exported to %s\n", in.ID, args[1])
			return nil
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a YAML definition without saving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := afero.ReadFile(c.fs, args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			if err := loader.NewYAMLLoader().Validate(string(data)); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%s is valid\n", args[0])
			return nil
		},
	}

	editCmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Copy an integration into a local draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			helper, api, err := c.helper()
			if err != nil {
				return err
			}
			in, err := api.GetIntegration(commandContext(cmd), args[0])
			if err != nil {
				return fmt.Errorf("failed to get integration %s: %w", args[0], err)
			}
			id, err := helper.CreateDraft(commandContext(cmd), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Draft %s saved.\n", id)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an integration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			if err := api.DeleteIntegration(commandContext(cmd), args[0]); err != nil {
				return fmt.Errorf("failed to delete integration %s: %w", args[0], err)
			}
			fmt.Fprintf(c.out, "Integration %s deleted\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(listCmd, getCmd, importCmd, exportCmd, validateCmd, editCmd, deleteCmd)
	return cmd
}

// stepSummary is a one-line description of a step
func stepSummary(step models.Step) string {
	switch {
	case step.StepKind == models.StepKindEndpoint && step.Connection != nil && step.Action != nil:
		return fmt.Sprintf("%s: %s", step.Connection.Name, step.Action.Name)
	case step.Name != "":
		return step.Name
	}
	return step.StepKind
}
