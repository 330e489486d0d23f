package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/templui/ecoscan/internal/config"
	"github.com/templui/ecoscan/internal/db"
)

func MigrateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	c.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(conn *sqlx.DB, driver string) error {
				return db.RunMigrations(cmd.Context(), conn.DB, driver)
			})
		},
	})

	c.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(conn *sqlx.DB, driver string) error {
				return db.MigrateDown(cmd.Context(), conn.DB, driver)
			})
		},
	})

	c.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(conn *sqlx.DB, driver string) error {
				v, err := db.Version(cmd.Context(), conn.DB, driver)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			})
		},
	})

	return c
}

// withDB connects using DB_DRIVER / DB_CONNECTION without running migrations.
func withDB(fn func(conn *sqlx.DB, driver string) error) error {
	driver, connection := config.LoadDatabase()

	conn, err := db.Init(driver, connection)
	if err != nil {
		return err
	}
	defer db.Close(conn)

	return fn(conn, driver)
}
