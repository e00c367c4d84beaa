package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/vistoria/internal/cli/shared"
	apperrors "github.com/ariel-frischer/vistoria/internal/errors"
	"github.com/ariel-frischer/vistoria/internal/export"
	"github.com/ariel-frischer/vistoria/internal/progress"
	"github.com/ariel-frischer/vistoria/internal/report"
	"github.com/ariel-frischer/vistoria/internal/store"
)

func newExportCmd(o *rootOptions) *cobra.Command {
	var (
		mode        string
		sendEmail   bool
		recipients  []string
		includeJSON bool
		includeXLSX bool
		userID      string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Generate the versioned report of an inspection",
		Long: `Validate the inspection, render the PDF report (plus JSON and XLSX when asked),
store it as the next version and optionally email the links.

Each export of the same client and day gets a new version:
Relatorio_<client>_<YYYYMMDD>_v<N>.pdf`,
		Example: `  vistoria export <id>
  vistoria export <id> --mode compatibility --json --xlsx
  vistoria export <id> --email --to maria@saojoao.com.br`,
		GroupID: GroupReports,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if mode != "" && !report.Mode(mode).IsValid() {
				return apperrors.NewArgumentError(fmt.Sprintf("invalid mode %q", mode),
					"Use --mode compatibility or --mode enriched")
			}
			if len(recipients) > 0 {
				sendEmail = true
			}

			a, err := o.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.Store.GetInspection(cmd.Context(), id); err != nil {
				return explain(err, id)
			}

			opts := a.ExportOptions(mode)
			opts.SendEmail = sendEmail
			opts.RecipientEmails = recipients
			opts.UserID = userID
			if cmd.Flags().Changed("json") {
				opts.IncludeJSON = includeJSON
			}
			if cmd.Flags().Changed("xlsx") {
				opts.IncludeWorkbook = includeXLSX
			}

			display := progress.NewDisplay(progress.DetectTerminalCapabilities(), cmd.ErrOrStderr())
			step := progress.StepInfo{Name: "generating report", Number: 1, Total: 1}
			if err := display.Start(step); err != nil {
				return err
			}
			res := a.Export(cmd.Context(), id, opts)
			if !res.Success {
				display.Fail(step, errors.New(res.Error))
			} else {
				display.Complete(step, res.FileName)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := printJSON(out, res); err != nil {
					return err
				}
			}
			if !res.Success {
				if len(res.CriticalErrors) > 0 {
					return apperrors.ReportBlocked(id, res.CriticalErrors)
				}
				return apperrors.NewRuntimeError(res.Error, "Retry with: vistoria export "+id)
			}
			if !asJSON {
				printExportResult(cmd, res)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Report layout: compatibility or enriched (default from config)")
	cmd.Flags().BoolVar(&sendEmail, "email", false, "Email the report links")
	cmd.Flags().StringSliceVar(&recipients, "to", nil, "Recipient addresses (implies --email)")
	cmd.Flags().BoolVar(&includeJSON, "json", false, "Also export the JSON report")
	cmd.Flags().BoolVar(&includeXLSX, "xlsx", false, "Also export the XLSX workbook")
	cmd.Flags().StringVar(&userID, "by", "", "User requesting the export")
	cmd.Flags().BoolVar(&asJSON, "output-json", false, "Print the result as JSON")
	return cmd
}

func printExportResult(cmd *cobra.Command, res export.Result) {
	out := cmd.OutOrStdout()
	shared.Success(out, "Report exported: %s (version %d)", res.FileName, res.Version)
	shared.KeyValue(out, "PDF", res.PDFURL)
	if res.JSONURL != "" {
		shared.KeyValue(out, "JSON", res.JSONURL)
	}
	if res.WorkbookURL != "" {
		shared.KeyValue(out, "XLSX", res.WorkbookURL)
	}
	shared.KeyValue(out, "Export log", res.ExportLogID)
	switch {
	case res.EmailError != "":
		shared.Warn(out, "Email not delivered: %s", res.EmailError)
		fmt.Fprintf(out, "  Retry with: vistoria retry-delivery %s\n", res.ExportLogID)
	case len(res.Recipients) > 0:
		shared.KeyValue(out, "Sent to", fmt.Sprint(res.Recipients))
	}
}

func newExportsCmd(o *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "exports <id>",
		Short:   "List the export history of an inspection",
		GroupID: GroupReports,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			a, err := o.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.Store.GetInspection(cmd.Context(), id); err != nil {
				return explain(err, id)
			}
			logs, err := a.Store.ListExportLogs(cmd.Context(), id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				if logs == nil {
					logs = []store.ExportLog{}
				}
				return printJSON(out, logs)
			}
			if len(logs) == 0 {
				fmt.Fprintln(out, "No exports yet. Generate one with: vistoria export "+id)
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tVERSION\tFILE\tSTATUS\tATTEMPTS\tCREATED")
			for _, l := range logs {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%s\n", l.ID, l.Version, l.FileName, l.Status, l.Attempts, l.CreatedAt)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newRetryDeliveryCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "retry-delivery <export-log-id>",
		Short:   "Re-send the email of an export whose delivery failed",
		GroupID: GroupReports,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logID := args[0]
			a, err := o.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.RetryDelivery(cmd.Context(), logID)
			switch {
			case errors.Is(err, store.ErrNotFound):
				return apperrors.ExportNotFound(logID)
			case errors.Is(err, export.ErrNotRetriable):
				return apperrors.Wrap(err, apperrors.Argument, "Only exports with status email_failed can be retried")
			case err != nil:
				return apperrors.Wrap(err, apperrors.Runtime, "Generate a new export with: vistoria export <id> --email")
			}

			out := cmd.OutOrStdout()
			if res.EmailError != "" {
				shared.Failure(out, "Delivery failed again: %s", res.EmailError)
				return shared.NewExitError(shared.ExitValidationFailed)
			}
			shared.Success(out, "Report links delivered to %v", res.Recipients)
			return nil
		},
	}
}
