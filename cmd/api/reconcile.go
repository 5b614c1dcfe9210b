package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"docvault/internal/config"
)

func newReconcileCmd() *cobra.Command {
	var (
		dryRun  bool
		grace   time.Duration
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Remove blobs without a record and report records without a blob.",
		Long: "Compares the blob store with the metadata store once and prints a JSON report.\n" +
			"Unreferenced blobs older than the grace period are deleted unless --dry-run is set.\n" +
			"Records whose blob is missing are only reported.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("grace-period") {
				cfg.Reconcile.GracePeriod = grace
			}

			log, err := newLogger(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			c, err := bootstrap(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer c.Close()

			report, err := c.reconciler.Run(ctx, dryRun)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report orphans without deleting anything")
	cmd.Flags().DurationVar(&grace, "grace-period", time.Hour, "skip unreferenced blobs modified within this window (overrides RECONCILE_GRACE_PERIOD)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "abort the sweep after this long")
	return cmd
}
