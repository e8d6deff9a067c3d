package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nexumi/nexumi-core/internal/bootstrap"
	"github.com/nexumi/nexumi-core/internal/database"
)

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := bootstrap.OpenPool(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()
			return database.MigrateUp(cmd.Context(), pool)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := bootstrap.OpenPool(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()
			return database.MigrateDown(cmd.Context(), pool)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the applied state of every migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := bootstrap.OpenPool(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := database.MigrationStatus(cmd.Context(), pool); err != nil {
				return err
			}
			version, err := database.MigrationVersion(cmd.Context(), pool)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", version)
			return nil
		},
	})

	return migrateCmd
}
