package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/vistoria/internal/api"
	"github.com/ariel-frischer/vistoria/internal/log"
)

func newServeCmd(o *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the HTTP API used by the field app.

The server stops gracefully on SIGINT or SIGTERM.`,
		Example: `  vistoria serve --addr :8080`,
		GroupID: GroupReports,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = o.cfg.ListenAddr
			}
			a, err := o.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintf(cmd.ErrOrStderr(), "Listening on %s\n", addr)
			return api.New(a, log.For("api")).ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from listen_addr)")
	return cmd
}
