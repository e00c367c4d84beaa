package cli

import (
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/vistoria/internal/app"
	"github.com/ariel-frischer/vistoria/internal/cli/shared"
)

func newPhotoCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "photo",
		Short:   "Attach photographic evidence",
		GroupID: GroupInspections,
	}

	var photoType string
	var required bool
	add := &cobra.Command{
		Use:   "add <id> <module> <file>",
		Short: "Attach a photo to a module (use module \"general\" for untagged photos)",
		Example: `  vistoria photo add <id> client fachada.jpg --type facade
  vistoria photo add <id> transformers placa.jpg --type nameplate --required`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			a, err := o.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			row, err := a.AddPhoto(cmd.Context(), id, app.PhotoInput{
				ModuleID:  args[1],
				PhotoType: photoType,
				Path:      args[2],
				Required:  required,
			})
			if err != nil {
				return explain(err, id)
			}
			shared.Success(cmd.OutOrStdout(), "Photo attached: %s (%s, %s)", row.FileName, row.PhotoTypeOrGeneral(), row.FileType)
			return nil
		},
	}
	add.Flags().StringVarP(&photoType, "type", "t", "", "Photo type tag (e.g. facade, nameplate)")
	add.Flags().BoolVar(&required, "required", false, "Mark the photo as mandatory evidence")

	cmd.AddCommand(add)
	return cmd
}
