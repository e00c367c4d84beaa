package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/vistoria/internal/cli/shared"
	apperrors "github.com/ariel-frischer/vistoria/internal/errors"
	"github.com/ariel-frischer/vistoria/internal/schema"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "schema",
		Short:       "Describe inspection modules, fields and cabin types",
		GroupID:     GroupInspections,
		Annotations: map[string]string{skipConfig: "true"},
	}
	cmd.AddCommand(newSchemaListCmd(), newSchemaShowCmd())
	return cmd
}

func newSchemaListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List modules and cabin types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := schema.Default()
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, map[string]any{
					"modules":     reg.Modules(),
					"cabin_types": reg.CabinTypes(),
				})
			}

			shared.Title(out, "Modules")
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ORDER\tID\tTITLE\tREQUIRED")
			for _, m := range reg.Modules() {
				req := ""
				if m.Required {
					req = "yes"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", m.Order, m.ID, m.Title, req)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintln(out)
			shared.Title(out, "Cabin types")
			tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tLABEL\tALIASES")
			for _, ct := range reg.CabinTypes() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", ct.Type, ct.Label, orDash(strings.Join(ct.Aliases, ", ")))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newSchemaShowCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "show <module>",
		Short:   "Show the fields, photos and measurements of a module",
		Example: "  vistoria schema show electrical_measurements",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := schema.Default()
			m, ok := reg.Module(args[0])
			if !ok {
				return apperrors.ModuleNotFound(args[0], reg.Suggest(args[0]))
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, m)
			}

			shared.Title(out, "%s (%s)", m.Title, m.ID)
			if len(m.Fields) > 0 {
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "FIELD\tTYPE\tREQUIRED\tDETAILS")
				for _, f := range m.Fields {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Name, f.Type, yesNo(f.Required), fieldDetails(f))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			if len(m.Photos) > 0 {
				fmt.Fprintln(out)
				shared.Title(out, "Photos")
				for _, p := range m.Photos {
					line := fmt.Sprintf("  %s: %s", p.Name, p.Label)
					if p.Required {
						line += " (required)"
					}
					fmt.Fprintln(out, line)
				}
			}
			if len(m.Measurements) > 0 {
				fmt.Fprintln(out)
				shared.Title(out, "Measurements")
				for _, ms := range m.Measurements {
					fmt.Fprintf(out, "  %s: %s [%s]%s\n", ms.Name, ms.Label, ms.Type, boundsText(ms.Range, ms.Unit))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func fieldDetails(f schema.FieldSpec) string {
	var parts []string
	if len(f.Options) > 0 {
		parts = append(parts, strings.Join(f.Options, " | "))
	}
	if b := boundsText(f.Validation, f.Unit); b != "" {
		parts = append(parts, strings.TrimSpace(b))
	} else if f.Unit != "" {
		parts = append(parts, f.Unit)
	}
	if f.ConditionalOn != nil {
		parts = append(parts, fmt.Sprintf("when %s=%s", f.ConditionalOn.Field, f.ConditionalOn.Value))
	}
	return orDash(strings.Join(parts, "; "))
}

func boundsText(b *schema.Bounds, unit string) string {
	if b == nil || (b.Min == nil && b.Max == nil) {
		return ""
	}
	lo, hi := "-inf", "+inf"
	if b.Min != nil {
		lo = fmt.Sprintf("%g", *b.Min)
	}
	if b.Max != nil {
		hi = fmt.Sprintf("%g", *b.Max)
	}
	s := fmt.Sprintf(" %s..%s", lo, hi)
	if unit != "" {
		s += " " + unit
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
