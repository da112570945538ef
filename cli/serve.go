package cli

import (
	"github.com/gear6io/sqllab/server/http"
	"github.com/spf13/cobra"
)

func createServeCommand(app *App) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lab over a JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(cmd.Context()); err != nil {
				return err
			}

			cfg := app.cfg.Server
			if address != "" {
				cfg.Address = address
			}

			server := http.NewServer(cfg, http.Deps{
				Runner:   app.runner,
				Schema:   app.sandbox,
				Catalog:  app.catalog,
				Progress: app.progress,
			}, app.logger)
			server.Start()
			app.printf("🚀 sqllab API listening on http://%s (Ctrl+C to stop)\n", cfg.Address)

			select {
			case <-cmd.Context().Done():
				return server.Stop()
			case err := <-server.Done():
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&address, "address", "a", "", "listen address, defaults to server.address")
	return cmd
}
