package cmd

import (
	"github.com/spf13/cobra"

	"github.com/atul-1602/memecraft/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc, err := app.Build(cmd.Context(), cfg, app.Options{})
		if err != nil {
			return err
		}
		return svc.App.Run(cmd.Context())
	},
}
