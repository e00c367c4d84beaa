package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/vistoria/internal/checklist"
	"github.com/ariel-frischer/vistoria/internal/cli/shared"
	apperrors "github.com/ariel-frischer/vistoria/internal/errors"
	"github.com/ariel-frischer/vistoria/internal/textnorm"
)

func newChecklistCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "checklist",
		Short:   "Execute the cabin-type checklist and record faults",
		GroupID: GroupChecklist,
	}
	cmd.AddCommand(
		newChecklistListCmd(o),
		newChecklistExecuteCmd(o),
		newChecklistFaultCmd(o),
		newChecklistActionsCmd(o),
		newChecklistActionCmd(o),
	)
	return cmd
}

func newChecklistListCmd(o *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list <id>",
		Short: "List checklist items of the inspection's cabin type with their status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			a, err := o.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if _, err := a.Store.GetInspection(ctx, id); err != nil {
				return explain(err, id)
			}
			items, err := a.Checklist.Items(ctx, id)
			if err != nil {
				return err
			}
			execs, err := a.Checklist.Executions(ctx, id)
			if err != nil {
				return err
			}
			byItem := make(map[string]checklist.Execution, len(execs))
			for _, e := range execs {
				byItem[e.ItemID] = e
			}

			out := cmd.OutOrStdout()
			if asJSON {
				type row struct {
					checklist.Item
					Execution *checklist.Execution `json:"execution,omitempty"`
				}
				rows := make([]row, 0, len(items))
				for _, it := range items {
					r := row{Item: it}
					if e, ok := byItem[it.ID]; ok {
						r.Execution = &e
					}
					rows = append(rows, r)
				}
				return printJSON(out, rows)
			}
			if len(items) == 0 {
				shared.Warn(out, "No checklist: select a known cabin type first.")
				fmt.Fprintf(out, "  vistoria module set %s cabin_type cabin_type=<type>\n", id)
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ITEM\tCATEGORY\tCRITICALITY\tEXPECTED\tSTATUS\tACTION")
			for _, it := range items {
				status := string(checklist.StatusPending)
				if e, ok := byItem[it.ID]; ok {
					status = string(e.Status)
				}
				expected := orDash(it.ExpectedValue)
				if it.Unit != "" && it.ExpectedValue != "" {
					expected += " " + it.Unit
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", it.ID, it.Category, it.Criticality, expected, status, it.Action)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newChecklistExecuteCmd(o *rootOptions) *cobra.Command {
	var (
		value         string
		observation   string
		photos        []string
		notApplicable bool
		nonconforming bool
		actor         string
	)
	cmd := &cobra.Command{
		Use:   "execute <id> <item>",
		Short: "Record the outcome of a checklist item",
		Long: `Record the outcome of a checklist item.

Measurements are checked against the item's tolerance. A failed item creates a corrective
action automatically; high-criticality failures also open a work order.`,
		Example: `  vistoria checklist execute <id> conv_bt_voltage_fn --value 126,8
  vistoria checklist execute <id> conv_visual_masonry --photo parede.jpg --fail --obs "Trinca"
  vistoria checklist execute <id> conv_operational_ventilation --na`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, itemID := args[0], args[1]
			in := checklist.ExecutionInput{
				Observation:   observation,
				PhotoURIs:     photos,
				Actor:         actor,
				NotApplicable: notApplicable,
				Nonconforming: nonconforming,
			}
			if value != "" {
				v, ok := textnorm.ParseNumber(value)
				if !ok {
					return apperrors.NewArgumentError(fmt.Sprintf("invalid measured value %q", value),
						"Use a number such as 126.8 or 126,8")
				}
				in.MeasuredValue = &v
			}

			a, err := o.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.Store.GetInspection(cmd.Context(), id); err != nil {
				return explain(err, id)
			}
			exec, err := a.Checklist.ExecuteItem(cmd.Context(), id, itemID, in)
			if err != nil {
				if errors.Is(err, checklist.ErrItemNotFound) {
					return apperrors.ChecklistItemNotFound(id, itemID)
				}
				return explain(err, id)
			}

			out := cmd.OutOrStdout()
			switch exec.Status {
			case checklist.StatusFailed:
				shared.Failure(out, "%s: não conforme", itemID)
				if exec.Validation != nil {
					fmt.Fprintf(out, "  %s\n", exec.Validation.Message)
				}
				fmt.Fprintln(out, "  Corrective action created. See: vistoria checklist actions "+id)
			case checklist.StatusNotApplicable:
				shared.Success(out, "%s: não aplicável", itemID)
			default:
				shared.Success(out, "%s: conforme", itemID)
				if exec.Validation != nil {
					fmt.Fprintf(out, "  %s\n", exec.Validation.Message)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&value, "value", "", "Measured value")
	cmd.Flags().StringVar(&observation, "obs", "", "Observation")
	cmd.Flags().StringSliceVar(&photos, "photo", nil, "Evidence photo path or URI (repeatable)")
	cmd.Flags().BoolVar(&notApplicable, "na", false, "Item does not apply to this installation")
	cmd.Flags().BoolVar(&nonconforming, "fail", false, "Mark the item as non-conforming")
	cmd.Flags().StringVar(&actor, "by", "", "Technician executing the item")
	cmd.MarkFlagsMutuallyExclusive("na", "fail")
	return cmd
}

func newChecklistFaultCmd(o *rootOptions) *cobra.Command {
	var description, criticality, itemID, responsible string
	cmd := &cobra.Command{
		Use:     "fault <id>",
		Short:   "Record a fault found during the inspection",
		Example: `  vistoria checklist fault <id> --description "Cabo com isolação danificada" --criticality high`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			crit := checklist.Criticality(criticality)
			if !crit.IsValid() {
				return apperrors.NewArgumentError(fmt.Sprintf("invalid criticality %q", criticality),
					"Use --criticality low, medium or high")
			}

			a, err := o.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.Store.GetInspection(cmd.Context(), id); err != nil {
				return explain(err, id)
			}
			action, err := a.Checklist.RegisterFault(cmd.Context(), id, itemID, description, crit, responsible)
			if err != nil {
				return apperrors.Wrap(err, apperrors.Argument)
			}

			out := cmd.OutOrStdout()
			shared.Success(out, "Fault recorded: %s", action.ID)
			if action.WorkOrderID != "" {
				orders, err := a.Store.WorkOrders(cmd.Context(), id)
				if err != nil {
					return err
				}
				for _, wo := range orders {
					if wo.ID == action.WorkOrderID {
						shared.KeyValue(out, "Work order", wo.Number)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "What is wrong")
	cmd.Flags().StringVar(&criticality, "criticality", string(checklist.CriticalityMedium), "low, medium or high")
	cmd.Flags().StringVar(&itemID, "item", "", "Related checklist item")
	cmd.Flags().StringVar(&responsible, "responsible", "", "Person or team responsible for the fix")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newChecklistActionsCmd(o *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "actions <id>",
		Short: "List corrective actions and their work orders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			a, err := o.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if _, err := a.Store.GetInspection(ctx, id); err != nil {
				return explain(err, id)
			}
			actions, err := a.Checklist.CorrectiveActions(ctx, id)
			if err != nil {
				return err
			}
			orders, err := a.Store.WorkOrders(ctx, id)
			if err != nil {
				return err
			}
			numbers := make(map[string]string, len(orders))
			for _, wo := range orders {
				numbers[wo.ID] = wo.Number
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if actions == nil {
					actions = []checklist.CorrectiveAction{}
				}
				return printJSON(out, actions)
			}
			if len(actions) == 0 {
				fmt.Fprintln(out, "No corrective actions.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCRITICALITY\tSTATUS\tWORK ORDER\tDESCRIPTION")
			for _, ac := range actions {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", ac.ID, ac.Criticality, ac.Status,
					orDash(numbers[ac.WorkOrderID]), ac.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newChecklistActionCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Manage a single corrective action",
	}
	cmd.AddCommand(newChecklistActionUpdateCmd(o))
	return cmd
}

func newChecklistActionUpdateCmd(o *rootOptions) *cobra.Command {
	var (
		status, criticality, remediation, responsible, cost string
		materials, beforePhotos, afterPhotos                []string
		asJSON                                              bool
	)
	cmd := &cobra.Command{
		Use:   "update <fault-id>",
		Short: "Record remediation progress of a corrective action",
		Long: `Record remediation progress of a corrective action.

Materials and photos are appended. Escalation is evaluated again after the update: a
medium-criticality fault documented with before-photos opens a work order.`,
		Example: `  vistoria checklist action update <fault-id> --before-photo trinca.jpg
  vistoria checklist action update <fault-id> --status done --after-photo reparo.jpg --cost 350,00`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			faultID := args[0]
			u := checklist.ActionUpdate{
				Materials:    materials,
				BeforePhotos: beforePhotos,
				AfterPhotos:  afterPhotos,
			}
			flags := cmd.Flags()
			if flags.Changed("status") {
				st := checklist.ActionStatus(status)
				if !st.IsValid() {
					return apperrors.NewArgumentError(fmt.Sprintf("invalid status %q", status),
						"Use --status pending, in_progress, done or cancelled")
				}
				u.Status = &st
			}
			if flags.Changed("criticality") {
				crit := checklist.Criticality(criticality)
				if !crit.IsValid() {
					return apperrors.NewArgumentError(fmt.Sprintf("invalid criticality %q", criticality),
						"Use --criticality low, medium or high")
				}
				u.Criticality = &crit
			}
			if flags.Changed("remediation") {
				rt := checklist.RemediationType(remediation)
				if !rt.IsValid() {
					return apperrors.NewArgumentError(fmt.Sprintf("invalid remediation type %q", remediation),
						"Use --remediation temporary or permanent")
				}
				u.RemediationType = &rt
			}
			if flags.Changed("responsible") {
				u.Responsible = &responsible
			}
			if flags.Changed("cost") {
				v, ok := textnorm.ParseNumber(cost)
				if !ok || v < 0 {
					return apperrors.NewArgumentError(fmt.Sprintf("invalid cost %q", cost),
						"Use a non-negative number such as 350.00 or 350,00")
				}
				u.EstimatedCost = &v
			}

			a, err := o.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			action, err := a.Checklist.ApplyActionUpdate(cmd.Context(), faultID, u)
			if err != nil {
				if errors.Is(err, checklist.ErrActionNotFound) {
					return apperrors.NewArgumentError(err.Error(),
						"List corrective actions with: vistoria checklist actions <id>")
				}
				return apperrors.Wrap(err, apperrors.Argument)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, action)
			}
			shared.Success(out, "Corrective action updated: %s (%s)", action.ID, action.Status)
			if action.WorkOrderID != "" {
				orders, err := a.Store.WorkOrders(cmd.Context(), action.InspectionID)
				if err != nil {
					return err
				}
				for _, wo := range orders {
					if wo.ID == action.WorkOrderID {
						shared.KeyValue(out, "Work order", wo.Number)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "pending, in_progress, done or cancelled")
	cmd.Flags().StringVar(&criticality, "criticality", "", "low, medium or high")
	cmd.Flags().StringVar(&remediation, "remediation", "", "temporary or permanent")
	cmd.Flags().StringVar(&responsible, "responsible", "", "Person or team responsible for the fix")
	cmd.Flags().StringVar(&cost, "cost", "", "Estimated cost")
	cmd.Flags().StringSliceVar(&materials, "material", nil, "Material used (repeatable)")
	cmd.Flags().StringSliceVar(&beforePhotos, "before-photo", nil, "Photo of the fault before the fix (repeatable)")
	cmd.Flags().StringSliceVar(&afterPhotos, "after-photo", nil, "Photo after the fix (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the updated action as JSON")
	return cmd
}
