package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/vistoria/internal/cli/shared"
	"github.com/ariel-frischer/vistoria/internal/schema"
	"github.com/ariel-frischer/vistoria/internal/store"
)

func newInspectionCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "inspection",
		Aliases: []string{"insp"},
		Short:   "Create, list, show and delete inspections",
		GroupID: GroupInspections,
	}
	cmd.AddCommand(
		newInspectionCreateCmd(o),
		newInspectionListCmd(o),
		newInspectionShowCmd(o),
		newInspectionDeleteCmd(o),
	)
	return cmd
}

func newInspectionCreateCmd(o *rootOptions) *cobra.Command {
	var client, site, by string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Start a new inspection",
		Example: `  vistoria inspection create --client "Condomínio São João" --site "Subestação Bloco A"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := o.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			in, err := a.Store.CreateInspection(cmd.Context(), strings.TrimSpace(client), strings.TrimSpace(site), by)
			if err != nil {
				return err
			}
			if in.ClientName != "" || in.WorkSite != "" {
				values := map[string]string{}
				if in.ClientName != "" {
					values[schema.FieldClientName] = in.ClientName
				}
				if in.WorkSite != "" {
					values[schema.FieldWorkSite] = in.WorkSite
				}
				if _, err := a.SetModule(cmd.Context(), in.ID, schema.ModuleClient, values); err != nil {
					return err
				}
			}
			shared.Success(cmd.OutOrStdout(), "Inspection created: %s", in.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&client, "client", "", "Client name")
	cmd.Flags().StringVar(&site, "site", "", "Work site")
	cmd.Flags().StringVar(&by, "by", "", "Technician creating the inspection")
	return cmd
}

func newInspectionListCmd(o *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List inspections, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := o.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.Store.ListInspections(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				if list == nil {
					list = []store.Inspection{}
				}
				return printJSON(out, list)
			}
			if len(list) == 0 {
				fmt.Fprintln(out, "No inspections yet. Create one with: vistoria inspection create")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCLIENT\tSTATUS\tPROGRESS\tUPDATED")
			for _, in := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d%%\t%s\n", in.ID, orDash(in.ClientName),
					statusLabel(in.Status), in.Progress, in.UpdatedAt)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newInspectionShowCmd(o *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an inspection with its recorded modules and photos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			a, err := o.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			in, err := a.Store.GetInspection(ctx, id)
			if err != nil {
				return explain(err, id)
			}
			rows, err := a.Store.FieldRows(ctx, id)
			if err != nil {
				return err
			}
			media, err := a.Store.MediaRows(ctx, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, struct {
					Inspection *store.Inspection `json:"inspection"`
					Fields     []store.FieldRow  `json:"fields"`
					Media      []store.MediaRow  `json:"media"`
				}{in, rows, media})
			}

			shared.Title(out, "Inspection %s", in.ID)
			shared.KeyValue(out, "Client", orDash(in.ClientName))
			shared.KeyValue(out, "Site", orDash(in.WorkSite))
			shared.KeyValue(out, "Status", statusLabel(in.Status))
			shared.KeyValue(out, "Progress", fmt.Sprintf("%d%%", in.Progress))
			shared.KeyValue(out, "Photos", len(media))

			byModule := map[string][]store.FieldRow{}
			for _, r := range rows {
				byModule[r.ModuleType] = append(byModule[r.ModuleType], r)
			}
			for _, m := range a.Registry.Modules() {
				fields := byModule[m.ID]
				if len(fields) == 0 {
					continue
				}
				fmt.Fprintln(out)
				shared.Title(out, "%s (%s)", m.Title, m.ID)
				for _, f := range fields {
					label := f.FieldName
					if spec, ok := m.Field(f.FieldName); ok {
						label = spec.Label
					}
					shared.KeyValue(out, label, f.FieldValue)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newInspectionDeleteCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an inspection and everything recorded for it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Store.DeleteInspection(cmd.Context(), args[0]); err != nil {
				return explain(err, args[0])
			}
			shared.Success(cmd.OutOrStdout(), "Inspection deleted: %s", args[0])
			return nil
		},
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
