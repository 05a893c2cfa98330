package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSnippetsCommand(verbose *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snippets",
		Short: "Manage saved SQL snippets",
	}

	cmd.AddCommand(newSnippetsListCommand(verbose))
	cmd.AddCommand(newSnippetsAddCommand(verbose))
	cmd.AddCommand(newSnippetsRemoveCommand(verbose))

	return cmd
}

func newSnippetsListCommand(verbose *bool) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved snippets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(*verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			list := app.Snippets.Search(search)
			for _, snip := range list {
				line := fmt.Sprintf("%-20s %s", snip.Name, snip.Query)
				if len(snip.Tags) > 0 {
					line += "  [" + strings.Join(snip.Tags, ", ") + "]"
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Filter snippets containing this text")
	return cmd
}

func newSnippetsAddCommand(verbose *bool) *cobra.Command {
	var (
		connName string
		tags     []string
	)

	cmd := &cobra.Command{
		Use:   "add NAME SQL",
		Short: "Save a snippet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(*verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			snip, err := app.Snippets.Add(args[0], args[1], connName, tags)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved snippet %q\n", snip.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&connName, "connection", "c", "", "Connection to associate with the snippet")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tags for searching")
	return cmd
}

func newSnippetsRemoveCommand(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Delete a saved snippet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(*verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Snippets.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed snippet %q\n", args[0])
			return nil
		},
	}
}
