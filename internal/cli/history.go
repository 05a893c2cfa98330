package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quernlabs/quern/internal/history"
)

func newHistoryCommand(verbose *bool) *cobra.Command {
	var (
		limit  int
		search string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently executed statements",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(*verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			if app.history == nil {
				return fmt.Errorf("history is disabled in the config")
			}

			var entries []history.Entry
			if search != "" {
				entries, err = app.history.Search(search, limit)
			} else {
				entries, err = app.history.Recent(limit)
			}
			if err != nil {
				return err
			}

			for _, entry := range entries {
				status := "ok"
				if !entry.Success {
					status = "failed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-10s %-6s %6d rows  %s\n",
					entry.ExecutedAt.Format("2006-01-02 15:04:05"),
					entry.ConnectionName, status, entry.RowCount, entry.Query)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().StringVar(&search, "search", "", "Filter entries containing this text")

	return cmd
}
