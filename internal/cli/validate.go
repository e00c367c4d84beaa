package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/vistoria/internal/app"
	"github.com/ariel-frischer/vistoria/internal/cli/shared"
	apperrors "github.com/ariel-frischer/vistoria/internal/errors"
	"github.com/ariel-frischer/vistoria/internal/progress"
	"github.com/ariel-frischer/vistoria/internal/validation"
)

func newValidateCmd(o *rootOptions) *cobra.Command {
	var all, asJSON bool
	cmd := &cobra.Command{
		Use:   "validate <id> | --all",
		Short: "Check whether an inspection is complete enough to be reported",
		Long: `Check whether an inspection is complete enough to be reported.

Exits with status 1 when critical findings block the report. Missing photos and other
non-critical gaps are listed but do not fail the command.`,
		Example: `  vistoria validate <id>
  vistoria validate --all`,
		GroupID: GroupReports,
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			if len(args) != 1 {
				return apperrors.NewArgumentErrorWithUsage("an inspection id or --all is required",
					"vistoria validate <id> | --all")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if all {
				return validateAll(cmd, a, asJSON)
			}

			id := args[0]
			if _, err := a.Store.GetInspection(cmd.Context(), id); err != nil {
				return explain(err, id)
			}
			res := a.Validator.ValidateFinalReport(cmd.Context(), id)
			out := cmd.OutOrStdout()
			if asJSON {
				if err := printJSON(out, res); err != nil {
					return err
				}
				if res.HasCritical() {
					return shared.NewExitError(shared.ExitValidationFailed)
				}
				return nil
			}

			if res.IsValid {
				shared.Success(out, "Inspection %s is ready to be reported.", id)
				return nil
			}
			if res.HasCritical() {
				return apperrors.ReportBlocked(id, res.CriticalErrors)
			}
			shared.Warn(out, "Inspection %s can be reported, but it is incomplete:", id)
			for _, e := range res.ErrorsSample {
				fmt.Fprintf(out, "  - %s\n", e)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Validate every inspection")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

func validateAll(cmd *cobra.Command, a *app.App, asJSON bool) error {
	display := progress.NewDisplay(progress.DetectTerminalCapabilities(), cmd.ErrOrStderr())
	step := progress.StepInfo{Name: "validating inspections", Number: 1, Total: 1}
	if err := display.Start(step); err != nil {
		return err
	}
	entries, err := a.ValidateAll(cmd.Context())
	if err != nil {
		display.Fail(step, err)
		return err
	}
	display.Complete(step, fmt.Sprintf("%d inspection(s)", len(entries)))

	blocked := 0
	for _, e := range entries {
		if e.Result.HasCritical() {
			blocked++
		}
	}

	out := cmd.OutOrStdout()
	if asJSON {
		results := make(map[string]validation.Result, len(entries))
		for _, e := range entries {
			results[e.Inspection.ID] = e.Result
		}
		if err := printJSON(out, results); err != nil {
			return err
		}
	} else {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCLIENT\tRESULT\tMISSING")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", e.Inspection.ID, orDash(e.Inspection.ClientName),
				verdict(e.Result), len(e.Result.MissingFields))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if blocked > 0 {
		return shared.NewExitError(shared.ExitValidationFailed)
	}
	return nil
}

func verdict(r validation.Result) string {
	switch {
	case r.IsValid:
		return "ready"
	case r.HasCritical():
		return "blocked"
	default:
		return "incomplete"
	}
}
