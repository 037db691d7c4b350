package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atul-1602/memecraft/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "memecraft", version.Full())
	},
}
