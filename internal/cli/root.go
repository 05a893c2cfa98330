// Package cli is the command-line shell over the engine: saved-connection
// management, query execution, schema browsing and history.
package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

// NewRootCmd builds the quern command tree.
func NewRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "quern",
		Short: "quern - multi-backend SQL client engine",
		Long: `quern connects to PostgreSQL and SQLite databases, optionally through an
SSH tunnel, and executes SQL with destructive-statement safeguards,
schema introspection and in-place cell editing.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newConnectionsCommand(&verbose))
	rootCmd.AddCommand(newQueryCommand(&verbose))
	rootCmd.AddCommand(newSchemaCommand(&verbose))
	rootCmd.AddCommand(newHistoryCommand(&verbose))
	rootCmd.AddCommand(newSnippetsCommand(&verbose))

	return rootCmd
}
