package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/tcmartin/integrator/pkg/integration"
	"github.com/tcmartin/integrator/pkg/loader"
	"github.com/tcmartin/integrator/pkg/models"
)

func newDraftCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "draft",
		Aliases: []string{"drafts"},
		Short:   "Manage integration drafts",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List drafts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			helper, _, err := c.helper()
			if err != nil {
				return err
			}
			drafts, err := helper.ListDrafts(commandContext(cmd))
			if err != nil {
				return err
			}
			if len(drafts) == 0 {
				fmt.Fprintln(c.out, "No drafts found")
				return nil
			}
			rows := make([][]string, 0, len(drafts))
			for _, d := range drafts {
				id, _ := integration.DraftID(d.Key)
				rows = append(rows, []string{id, d.UpdatedAt.Local().Format(time.RFC3339), strconv.Itoa(d.Size)})
			}
			return printTable(c.out, []string{"ID", "UPDATED", "SIZE"}, rows)
		},
	}

	var format string
	showCmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a draft and its steps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			helper, _, err := c.helper()
			if err != nil {
				return err
			}
			draft, err := helper.GetDraft(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			if format != "" {
				return printDocument(c.out, format, draft)
			}

			fmt.Fprintf(c.out, "Name: %s\n", draft.Name)
			for f := range draft.Flows {
				fmt.Fprintf(c.out, "Flow %d:\n", f)
				for p, step := range integration.GetSteps(draft, f) {
					fmt.Fprintf(c.out, "  %d. %s\n", p, stepSummary(step))
				}
			}
			return nil
		},
	}
	showCmd.Flags().StringVarP(&format, "output", "o", "", "Print the whole document as json or yaml")

	loadCmd := &cobra.Command{
		Use:   "load [id] [file]",
		Short: "Store a YAML definition as the draft for id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := loader.LoadFile(c.fs, loader.NewYAMLLoader(), args[1])
			if err != nil {
				return err
			}
			helper, _, err := c.helper()
			if err != nil {
				return err
			}
			if err := helper.SetDraft(commandContext(cmd), args[0], in); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Draft %s saved.\n", args[0])
			return nil
		},
	}

	var removeFlow int
	removeStepCmd := &cobra.Command{
		Use:   "remove-step [id] [position]",
		Short: "Remove a step from a draft",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			position, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid position %q", args[1])
			}
			helper, _, err := c.helper()
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			draft, err := helper.GetDraft(ctx, args[0])
			if err != nil {
				return err
			}
			updated, err := integration.RemoveStep(draft, removeFlow, position)
			if err != nil {
				return err
			}
			return helper.SetDraft(ctx, args[0], updated)
		},
	}
	removeStepCmd.Flags().IntVar(&removeFlow, "flow", 0, "Flow index")

	var (
		mapFlow     int
		mappingFile string
		editMapper  bool
	)
	mapCmd := &cobra.Command{
		Use:   "map [id] [position]",
		Short: "Add a data mapper step to a draft, or edit the one at position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			position, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid position %q", args[1])
			}
			mapping, err := afero.ReadFile(c.fs, mappingFile)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", mappingFile, err)
			}

			helper, _, err := c.helper()
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			draft, err := helper.GetDraft(ctx, args[0])
			if err != nil {
				return err
			}

			inputs, err := integration.InputDocuments(draft, mapFlow, position)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Input documents:")
			for _, doc := range inputs {
				fmt.Fprintf(c.out, "  %d. %s\n", doc.Position, shapeLabel(doc.Shape))
			}

			// A new mapper sits before the step now at position; an edited
			// one maps into the step after it.
			base := models.Step{}
			outputPosition := position - 1
			if editMapper {
				base, err = integration.GetStep(draft, mapFlow, position)
				if err != nil {
					return err
				}
				if base.StepKind != models.StepKindMapper {
					return fmt.Errorf("step %d of flow %d is not a data mapper", position, mapFlow)
				}
				outputPosition = position
			}
			output, err := integration.OutputDocument(draft, mapFlow, outputPosition, "")
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Output document:\n  %d. %s\n", output.Position, shapeLabel(output.Shape))

			step := integration.MappingStep(base, output, string(mapping))
			if editMapper {
				draft, err = integration.UpdateStep(draft, step, mapFlow, position)
			} else {
				draft, err = integration.AddStep(draft, step, mapFlow, position)
			}
			if err != nil {
				return err
			}
			if err := helper.SetDraft(ctx, args[0], draft); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Data mapper saved at flow:%d step:%d\n", mapFlow, position)
			return nil
		},
	}
	mapCmd.Flags().IntVar(&mapFlow, "flow", 0, "Flow index")
	mapCmd.Flags().StringVarP(&mappingFile, "mapping-file", "f", "", "File holding the serialized mapping")
	mapCmd.Flags().BoolVar(&editMapper, "edit", false, "Replace the mapper step at position instead of adding one")
	_ = mapCmd.MarkFlagRequired("mapping-file")

	submitCmd := &cobra.Command{
		Use:   "submit [id]",
		Short: "Save a draft to the server and discard it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			helper, _, err := c.helper()
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			draft, err := helper.GetDraft(ctx, args[0])
			if err != nil {
				return err
			}
			saved, err := helper.SaveIntegration(ctx, draft)
			if err != nil {
				return err
			}
			if err := helper.DeleteDraft(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Integration %s saved (version %d)\n", saved.ID, saved.Version)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Discard a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			helper, _, err := c.helper()
			if err != nil {
				return err
			}
			if err := helper.DeleteDraft(commandContext(cmd), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Draft %s deleted\n", args[0])
			return nil
		},
	}

	var olderThan time.Duration
	pruneCmd := &cobra.Command{
		Use:   "prune",
		Short: "Discard drafts untouched for a while",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			drafts, err := c.drafts(api)
			if err != nil {
				return err
			}
			n, err := drafts.PruneDrafts(commandContext(cmd), time.Now().Add(-olderThan))
			if err != nil {
				return fmt.Errorf("failed to prune drafts: %w", err)
			}
			fmt.Fprintf(c.out, "Pruned %d drafts\n", n)
			return nil
		},
	}
	pruneCmd.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "Age of the drafts to discard")

	cmd.AddCommand(listCmd, showCmd, loadCmd, removeStepCmd, mapCmd, submitCmd, deleteCmd, pruneCmd)
	return cmd
}

func shapeLabel(shape models.DataShape) string {
	label := string(shape.Kind)
	if shape.Type != "" {
		label += " " + shape.Type
	}
	if shape.Name != "" {
		label += " (" + shape.Name + ")"
	}
	return label
}
