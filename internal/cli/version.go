package cli

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version information - set via ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func newVersionCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:         "version",
		Short:       "Display version information",
		Long:        "Display version, commit, build date, and Go version information for vistoria",
		Annotations: map[string]string{skipConfig: "true"},
		Args:        cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			if plain {
				fmt.Fprintf(out, "vistoria %s\n", Version)
				return
			}
			label := color.New(color.Bold).SprintFunc()
			fmt.Fprintf(out, "%s %s\n", label("vistoria version"), Version)
			fmt.Fprintf(out, "%s %s\n", label("Built from commit:"), Commit)
			fmt.Fprintf(out, "%s %s\n", label("Build date:"), BuildDate)
			fmt.Fprintf(out, "%s %s\n", label("Go version:"), runtime.Version())
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Print only the version string")
	return cmd
}
