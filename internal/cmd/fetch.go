package cmd

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atul-1602/memecraft/bootstrap"
	"github.com/atul-1602/memecraft/internal/app"
	"github.com/atul-1602/memecraft/memes"
)

var (
	fetchQuery string
	fetchLimit int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch the template list once and print it as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// stdout carries the JSON result.
		cfg.Logging.Output = "stderr"
		svc, err := app.Build(cmd.Context(), cfg, app.Options{
			WithoutServer: true,
			Bootstrap:     []bootstrap.Option{bootstrap.WithSummaryOutput(io.Discard)},
		})
		if err != nil {
			return err
		}
		return svc.App.RunTask(cmd.Context(), func(ctx context.Context) error {
			list, err := svc.Fetcher.FetchTemplates(ctx)
			if err != nil {
				return err
			}
			return writeTemplates(cmd.OutOrStdout(), list, fetchQuery, fetchLimit)
		})
	},
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchQuery, "query", "q", "", "only templates whose name contains this text")
	fetchCmd.Flags().IntVarP(&fetchLimit, "limit", "n", 0, "print at most this many templates")
}

func writeTemplates(w io.Writer, list *memes.TemplateList, query string, limit int) error {
	out := make([]memes.Template, 0, list.Len())
	needle := strings.ToLower(query)
	for _, t := range list.Templates {
		if needle != "" && !strings.Contains(strings.ToLower(t.Name), needle) {
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
