package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nexumi/nexumi-core/internal/bootstrap"
)

func newSweepCmd() *cobra.Command {
	var batch int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Expire overdue listings once and return their items to the sellers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if batch <= 0 {
				batch = cfg.SweepBatchSize
			}

			app, err := bootstrap.Build(cmd.Context(), cfg, bootstrap.Options{})
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				app.Shutdown(ctx)
			}()
			// analytics workers must run so expiry events are recorded
			app.Analytics.Start()

			result, err := app.Marketplace.ExpireSweep(cmd.Context(), time.Now().UTC(), batch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d expired=%d skipped=%d failed=%d\n",
				result.Scanned, result.Expired, result.Skipped, result.Failed)
			return nil
		},
	}

	cmd.Flags().IntVar(&batch, "batch", 0, "Maximum listings to expire (default SWEEP_BATCH_SIZE)")
	return cmd
}
