package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/vistoria/internal/app"
	"github.com/ariel-frischer/vistoria/internal/cli/shared"
	apperrors "github.com/ariel-frischer/vistoria/internal/errors"
	"github.com/ariel-frischer/vistoria/internal/schema"
)

func newModuleCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "module",
		Short:   "Record and show module data of an inspection",
		GroupID: GroupInspections,
	}
	cmd.AddCommand(newModuleSetCmd(o), newModuleShowCmd(o))
	return cmd
}

func newModuleSetCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> <module> key=value [key=value...]",
		Short: "Set field values of a module",
		Long: `Set field values of a module. Values are merged into what is already stored;
an empty value (key=) clears the field. Booleans are true/false.`,
		Example: `  vistoria module set <id> client client_name="Condomínio São João" authorization=true
  vistoria module set <id> cabin_type cabin_type=CONVENCIONAL
  vistoria module set <id> procedures ppe_used=Outro ppe_used_other="Protetor facial"`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, moduleID := args[0], args[1]
			values, err := app.ParseAssignments(args[2:])
			if err != nil {
				return apperrors.InvalidAssignment(err.Error())
			}

			a, err := o.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			in, err := a.SetModule(cmd.Context(), id, moduleID, values)
			if err != nil {
				return explain(err, id)
			}
			shared.Success(cmd.OutOrStdout(), "Saved %d field(s) in %s. Progress: %d%% (%s)",
				len(values), moduleID, in.Progress, statusLabel(in.Status))
			return nil
		},
	}
}

func newModuleShowCmd(o *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id> <module>",
		Short: "Show the fields of a module with their stored values",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, moduleID := args[0], args[1]
			a, err := o.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.Store.GetInspection(cmd.Context(), id); err != nil {
				return explain(err, id)
			}
			m, err := a.Module(moduleID)
			if err != nil {
				return explain(err, id)
			}
			values, err := a.Store.ModuleValues(cmd.Context(), id, moduleID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, values)
			}

			shared.Title(out, "%s (%s)", m.Title, m.ID)
			res := a.Registry.ResolveModule(m.ID, values)
			for _, f := range res.VisibleFields {
				value, ok := values[f.Name]
				switch {
				case ok:
				case f.Required:
					value = shared.Dim("(obrigatório)")
				default:
					value = shared.Dim("-")
				}
				shared.KeyValue(out, f.Label, value)
				if f.HasOtherOption() && values[f.Name] == schema.OtherOption {
					shared.KeyValue(out, f.Label+" (outro)", values[f.OtherKey()])
				}
			}
			for _, k := range app.SortedKeys(values) {
				if _, known := m.Field(k); !known && !res.IsVisibleField(strings.TrimSuffix(k, schema.OtherSuffix)) {
					shared.KeyValue(out, k, values[k])
				}
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print values as JSON")
	return cmd
}
