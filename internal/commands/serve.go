package commands

import (
	"github.com/spf13/cobra"

	"picmon/internal/app"
)

func (a *App) installServe() error {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Subscribe to the live feed and serve the dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.logger.Info("starting", "app", AppName, "version", Version, "env", a.cfg.AppEnv)
			return app.Run(cmd.Context(), a.cfg, a.logger)
		},
	}
	flags := cmd.Flags()
	flags.String("http-addr", "", "listen address for the dashboard")
	flags.String("broker-url", "", "live feed broker URL override")
	flags.String("backend-url", "", "history backend base URL override")
	flags.String("station-policy", "", "station policy: fixed or discover")
	flags.Bool("archive", true, "store readings in the local archive")
	if err := a.bindFlags(flags, map[string]string{
		"http_addr":       "http-addr",
		"broker_url":      "broker-url",
		"backend_url":     "backend-url",
		"station_policy":  "station-policy",
		"archive_enabled": "archive",
	}); err != nil {
		return err
	}
	a.cmd.AddCommand(cmd)
	return nil
}
