package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quernlabs/quern/internal/config"
	"github.com/quernlabs/quern/internal/db/discovery"
	"github.com/quernlabs/quern/internal/secret"
)

func newConnectionsCommand(verbose *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connections",
		Aliases: []string{"conn"},
		Short:   "Manage saved connections",
	}

	cmd.AddCommand(newConnectionsListCommand(verbose))
	cmd.AddCommand(newConnectionsAddCommand(verbose))
	cmd.AddCommand(newConnectionsRemoveCommand(verbose))
	cmd.AddCommand(newConnectionsTestCommand(verbose))
	cmd.AddCommand(newConnectionsDiscoverCommand())

	return cmd
}

func newConnectionsDiscoverCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Find local PostgreSQL instances",
		Long: `Look for PostgreSQL endpoints via libpq environment variables, ~/.pgpass
entries and a localhost port sweep.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			instances := discovery.Discover(cmd.Context())
			if len(instances) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No instances found.")
				return nil
			}
			for _, instance := range instances {
				extra := ""
				if instance.User != "" {
					extra += "  user=" + instance.User
				}
				if instance.Database != "" {
					extra += "  database=" + instance.Database
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%d  (%s)%s\n",
					instance.Host, instance.Port, instance.Source, extra)
			}
			return nil
		},
	}
}

func newConnectionsListCommand(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved connections",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(*verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			last := app.Store.LastConnection()
			for _, conn := range app.Store.List() {
				marker := " "
				if conn.Name == last {
					marker = "*"
				}
				target := conn.Path
				if conn.Type == "postgres" {
					target = fmt.Sprintf("%s@%s:%d/%s", conn.Username, conn.Host, conn.Port, conn.Database)
				}
				line := fmt.Sprintf("%s %-20s %-10s %s", marker, conn.Name, conn.Type, target)
				if len(conn.Tags) > 0 {
					line += "  [" + strings.Join(conn.Tags, ", ") + "]"
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}

func newConnectionsAddCommand(verbose *bool) *cobra.Command {
	var (
		connType string
		path     string
		host     string
		port     int
		user     string
		database string
		password string
		tags     []string
		sshHost  string
		sshPort  int
		sshUser  string
		sshKey   string
	)

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Save a connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(*verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			conn := config.SavedConnection{
				Type:     connType,
				Name:     args[0],
				Path:     path,
				Host:     host,
				Port:     port,
				Username: user,
				Database: database,
				Tags:     tags,
			}

			if password == "" && connType == "postgres" {
				password = discovery.FindPassword(host, port, database, user)
			}
			if password != "" {
				key, err := app.Keys.MasterKey()
				if err != nil {
					return fmt.Errorf("failed to load master key: %w", err)
				}
				sealed, err := secret.Encrypt(key, password)
				if err != nil {
					return fmt.Errorf("failed to encrypt password: %w", err)
				}
				conn.Password = &sealed
			}

			if sshHost != "" {
				conn.SSH = &config.SSHSettings{
					Host:     sshHost,
					Port:     sshPort,
					Username: sshUser,
					KeyPath:  sshKey,
				}
			}

			if err := app.Store.Add(conn); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved connection %q\n", conn.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&connType, "type", "postgres", "Connection type: postgres or sqlite")
	cmd.Flags().StringVar(&path, "path", "", "SQLite database file path")
	cmd.Flags().StringVar(&host, "host", "localhost", "PostgreSQL host")
	cmd.Flags().IntVar(&port, "port", 5432, "PostgreSQL port")
	cmd.Flags().StringVar(&user, "user", "", "PostgreSQL user")
	cmd.Flags().StringVar(&database, "database", "", "PostgreSQL database name")
	cmd.Flags().StringVar(&password, "password", "", "PostgreSQL password (stored encrypted)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tags; prod/production/sensitive enable confirmation prompts")
	cmd.Flags().StringVar(&sshHost, "ssh-host", "", "SSH tunnel host")
	cmd.Flags().IntVar(&sshPort, "ssh-port", 22, "SSH tunnel port")
	cmd.Flags().StringVar(&sshUser, "ssh-user", "", "SSH tunnel user")
	cmd.Flags().StringVar(&sshKey, "ssh-key", "", "SSH private key path (default: agent)")

	return cmd
}

func newConnectionsRemoveCommand(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Delete a saved connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(*verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Store.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed connection %q\n", args[0])
			return nil
		},
	}
}

func newConnectionsTestCommand(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "test NAME",
		Short: "Verify a saved connection can be reached",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(*verbose)
			if err != nil {
				return err
			}
			defer app.Close()

			saved, ok := app.Store.Find(args[0])
			if !ok {
				return fmt.Errorf("no saved connection named %q", args[0])
			}
			spec, err := app.resolve(&saved)
			if err != nil {
				return err
			}
			if err := app.Engine.TestConnection(cmd.Context(), spec); err != nil {
				return fmt.Errorf("connection failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Connection OK")
			return nil
		},
	}
}
