package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(factory MigratorFactory) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "migrations directory (default: database.migration_path)")

	withMigrator := func(fn func(cmd *cobra.Command, m Migrator, dir string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cc, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			m, err := factory(cc.Config, cc.Logger)
			if err != nil {
				return err
			}
			defer m.Close()
			d := dir
			if d == "" {
				d = cc.Config.Database.MigrationPath
			}
			return fn(cmd, m, d)
		}
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m Migrator, dir string) error {
			if err := m.RunMigrations(dir); err != nil {
				return err
			}
			PrintSuccess(cmd, "migrations applied")
			return nil
		}),
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be positive, got %d", steps)
			}
			return nil
		},
		RunE: withMigrator(func(cmd *cobra.Command, m Migrator, dir string) error {
			if err := m.RollbackMigrations(dir, steps); err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("rolled back %d migration(s)", steps))
			return nil
		}),
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the current schema version",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(cmd *cobra.Command, m Migrator, dir string) error {
			st, err := m.MigrationStatus(dir)
			if err != nil {
				return err
			}
			dirty := ""
			if st.Dirty {
				dirty = " (dirty)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d%s\n", st.Version, dirty)
			return nil
		}),
	}

	cmd.AddCommand(up, down, status)
	return cmd
}

//Personal.AI order the ending
