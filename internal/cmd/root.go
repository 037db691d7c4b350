package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/atul-1602/memecraft/internal/app"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "memecraft",
	Short:         "Meme template service",
	Long:          "memecraft serves the imgflip meme template list behind a local rate limit, a TTL cache and a relay fallback.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteContext runs the root command with ctx available to subcommands.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: cmd/memecraft/config.yml)")
	rootCmd.AddCommand(serveCmd, fetchCmd, versionCmd)
}

func loadConfig() (*app.Config, error) {
	return app.Load(cfgFile)
}
