package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSchemaCommand(verbose *bool) *cobra.Command {
	var connName string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Browse database structure",
	}
	cmd.PersistentFlags().StringVarP(&connName, "connection", "c", "", "Saved connection name (default: last used)")

	cmd.AddCommand(newSchemasListCommand(verbose, &connName))
	cmd.AddCommand(newTablesCommand(verbose, &connName))
	cmd.AddCommand(newDescribeCommand(verbose, &connName))

	return cmd
}

// withConnection opens the named (or last used) connection and runs fn
// against the bound CLI tab.
func withConnection(cmd *cobra.Command, verbose bool, connName string, fn func(app *App) error) error {
	app, err := newApp(verbose)
	if err != nil {
		return err
	}
	defer app.Close()

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
	return fn(app)
}

func newSchemasListCommand(verbose *bool, connName *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List schemas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConnection(cmd, *verbose, *connName, func(app *App) error {
				names, err := app.Engine.SchemaNames(cmd.Context(), cliTab)
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	}
}

func newTablesCommand(verbose *bool, connName *string) *cobra.Command {
	var schema string

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List tables and views in a schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConnection(cmd, *verbose, *connName, func(app *App) error {
				tables, err := app.Engine.Tables(cmd.Context(), cliTab, schema)
				if err != nil {
					return err
				}
				for _, table := range tables {
					kind := "table"
					if table.IsView {
						kind = "view"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-40s %s\n", table.Name, kind)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&schema, "schema", "public", "Schema name (use main for SQLite)")
	return cmd
}

func newDescribeCommand(verbose *bool, connName *string) *cobra.Command {
	var schema string

	cmd := &cobra.Command{
		Use:   "describe TABLE",
		Short: "Show a table's columns, indexes and foreign keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, *verbose, *connName, func(app *App) error {
				structure, err := app.Engine.DescribeTable(cmd.Context(), cliTab, schema, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()

				fmt.Fprintln(out, "Columns:")
				for _, col := range structure.Columns {
					flags := make([]string, 0, 2)
					if col.IsPrimaryKey {
						flags = append(flags, "PK")
					}
					if !col.IsNullable {
						flags = append(flags, "NOT NULL")
					}
					line := fmt.Sprintf("  %-30s %-20s %s", col.Name, col.DataType, strings.Join(flags, " "))
					if col.DefaultValue != "" {
						line += " DEFAULT " + col.DefaultValue
					}
					fmt.Fprintln(out, strings.TrimRight(line, " "))
				}

				if len(structure.Indexes) > 0 {
					fmt.Fprintln(out, "Indexes:")
					for _, idx := range structure.Indexes {
						kind := ""
						if idx.IsPrimary {
							kind = " PRIMARY"
						} else if idx.IsUnique {
							kind = " UNIQUE"
						}
						fmt.Fprintf(out, "  %s (%s)%s\n", idx.Name, strings.Join(idx.Columns, ", "), kind)
					}
				}

				if len(structure.ForeignKeys) > 0 {
					fmt.Fprintln(out, "Foreign keys:")
					for _, fk := range structure.ForeignKeys {
						fmt.Fprintf(out, "  %s (%s) -> %s (%s)\n",
							fk.Name, strings.Join(fk.Columns, ", "),
							fk.ReferencedTable, strings.Join(fk.ReferencedColumns, ", "))
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&schema, "schema", "public", "Schema name (use main for SQLite)")
	return cmd
}
