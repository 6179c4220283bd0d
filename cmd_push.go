package main

import (
	"fmt"

	"touch_daily/internal/app"
	"touch_daily/internal/sheets"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func pushCmd() *cobra.Command {
	var xlsx, worksheet, sourceSheet string
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Push a workbook tab to Google Sheets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireSetting(cfg.GoogleCreds, app.KeyGoogleCreds); err != nil {
				return err
			}
			if err := requireSetting(cfg.GoogleSheetID, app.KeyGoogleSheetID); err != nil {
				return err
			}
			if xlsx == "" {
				xlsx = cfg.WorkbookPath()
			}

			client, err := sheets.NewServiceAccountClient(cmd.Context(), cfg.GoogleCreds, cfg.Resilience.SheetPush)
			if err != nil {
				return err
			}
			result, err := client.PushWorkbookTab(cmd.Context(), xlsx, sourceSheet, cfg.GoogleSheetID, worksheet)
			if err != nil {
				return err
			}

			log.Info().
				Str("workbook", xlsx).
				Str("tab", result.Tab).
				Bool("created", result.Created).
				Msg("Push completed")
			fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d rows x %d columns to %s\n", result.Rows, result.Columns, result.Tab)
			return nil
		},
	}
	cmd.Flags().String("sheet-id", "", "destination spreadsheet id (env GOOGLE_SHEET_ID)")
	cmd.Flags().StringVar(&worksheet, "worksheet", sheets.DefaultTab, "destination tab")
	cmd.Flags().StringVar(&sourceSheet, "source-sheet", sheets.DefaultTab, "workbook sheet to read")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "workbook to read (default: <output-dir>/Daily_<date>.xlsx)")
	bindFlag(cmd.Flags(), app.KeyGoogleSheetID, "sheet-id")
	return cmd
}
