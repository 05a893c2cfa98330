package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quernlabs/quern/internal/models"
)

func newQueryCommand(verbose *bool) *cobra.Command {
	var (
		connName string
		snippet  string
		offset   int
		yes      bool
	)

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Execute a statement",
		Long: `Execute a statement on a saved connection. SELECT statements without a
top-level ORDER BY are paginated; use --offset for later pages.

Destructive statements on connections tagged prod, production or sensitive
require confirmation unless --yes is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(*verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			var sqlText string
			switch {
			case snippet != "":
				snip, ok := app.Snippets.Find(snippet)
				if !ok {
					return fmt.Errorf("no snippet named %q", snippet)
				}
				sqlText = snip.Query
				if connName == "" {
					connName = snip.Connection
				}
				if err := app.Snippets.MarkUsed(snippet); err != nil {
					return err
				}
			case len(args) == 1:
				sqlText = args[0]
			default:
				return fmt.Errorf("provide SQL or --snippet")
			}

			name := connName
			if name == "" {
				name = app.Store.LastConnection()
			}
			if name == "" {
				return fmt.Errorf("no connection selected; use --connection or connect once")
			}
			if err := app.connect(cmd.Context(), name); err != nil {
				return err
			}

			check := app.Engine.CheckSafety(sqlText, cliTab)
			if check.RequiresConfirmation && !yes {
				fmt.Fprintln(cmd.OutOrStdout(), check.WarningMessage())
				if !confirm(cmd) {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			result, err := app.Engine.Execute(cmd.Context(), cliTab, sqlText, offset)
			if err != nil {
				return err
			}
			printResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&connName, "connection", "c", "", "Saved connection name (default: last used)")
	cmd.Flags().StringVar(&snippet, "snippet", "", "Run a saved snippet by name instead of inline SQL")
	cmd.Flags().IntVar(&offset, "offset", 0, "Row offset for paginated SELECTs")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the destructive-statement confirmation")

	return cmd
}

func confirm(cmd *cobra.Command) bool {
	fmt.Fprint(cmd.OutOrStdout(), "Proceed? [y/N] ")
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func printResult(cmd *cobra.Command, result *models.QueryResult) {
	out := cmd.OutOrStdout()

	if len(result.Columns) > 0 {
		w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, strings.Join(result.Columns, "\t"))
		for _, row := range result.Rows {
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		if err := w.Flush(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	suffix := ""
	if result.Truncated {
		suffix = " (truncated)"
	}
	fmt.Fprintf(out, "%d row(s) in %s%s\n", result.RowCount, result.ExecutionTime, suffix)
}
