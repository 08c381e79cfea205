package cli

import (
	"github.com/spf13/cobra"

	"stepline/internal/build"
	"stepline/internal/server"
)

func newServeCommand(app *App) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recorded builds over HTTP",
		Long: `Start a read-only HTTP API over the build records: recent builds,
individual build results, and step logs. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := listen
			if addr == "" {
				addr = app.Config.Server.Listen
			}

			reader := build.NewReader(app.Config.BuildDir)
			app.Printer.Infof("serving build status on http://%s", addr)
			return server.New(reader).ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	return cmd
}
