// Command app runs and administers the nexumi game core.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/nexumi/nexumi-core/internal/bootstrap"
	"github.com/nexumi/nexumi-core/internal/config"
)

var cfg *config.Config

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "app",
		Short: "Nexumi game core",
		Long: `app serves the nexumi game core over HTTP and administers its store.

Configuration is read from the environment and an optional .env file.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			bootstrap.SetupLogger(cfg)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newSweepCmd())
	rootCmd.AddCommand(newIndexesCmd())
	rootCmd.AddCommand(newValidateCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
