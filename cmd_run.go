package main

import (
	"context"
	"time"

	"touch_daily/internal/app"
	"touch_daily/internal/notifications"

	"github.com/spf13/cobra"
)

func runCmd() *cobra.Command {
	var backup bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch and build the day's workbook, then send a run summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaily(cmd.Context(), cfg, buildOptions{Backup: backup, Progress: true})
		},
	}
	cmd.Flags().BoolVar(&backup, "backup", false, "copy the workbook to <name>.backup.xlsx before writing")
	return cmd
}

func runDaily(ctx context.Context, cfg *app.Config, opts buildOptions) error {
	start := time.Now()
	summary := notifications.RunSummary{Date: cfg.Date}

	err := func() error {
		fetched, err := runFetch(ctx, cfg, start)
		if err != nil {
			return err
		}
		summary.Stores = fetched.Stores
		summary.Rows = fetched.Rows

		opts.CSVPath = fetched.CSVPath
		if _, err := runBuild(cfg, opts); err != nil {
			return err
		}
		summary.Workbook = cfg.WorkbookPath()
		return nil
	}()

	summary.Err = err
	summary.Elapsed = time.Since(start)
	// The summary still goes out when the run was interrupted.
	cfg.NewNotificationClient().NotifyRun(context.WithoutCancel(ctx), summary)
	return err
}
