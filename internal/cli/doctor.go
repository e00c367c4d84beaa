package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/vistoria/internal/cli/shared"
	"github.com/ariel-frischer/vistoria/internal/health"
)

func newDoctorCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "doctor",
		Aliases: []string{"doc"},
		Short:   "Run health checks for the database, report storage and notifications (doc)",
		Long: `Run health checks to verify that vistoria can store inspections and deliver reports.

This command checks for:
  - Database (opens database_path and applies migrations)
  - Artifacts directory (artifacts_dir exists and is writable)
  - Checklist templates (every cabin type has a checklist)
  - Notifications (the selected channel is fully configured)`,
		Example: `  vistoria doctor`,
		GroupID: GroupConfiguration,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report := health.RunHealthChecks(cmd.Context(), o.cfg)
			fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))
			if !report.Passed {
				return shared.NewExitError(shared.ExitMissingDependency)
			}
			return nil
		},
	}
}
