package main

import (
	"fmt"
	"time"

	"touch_daily/internal/app"
	"touch_daily/internal/processing"
	"touch_daily/internal/workbook"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type buildOptions struct {
	// CSVPath defaults to the day's sales export.
	CSVPath string
	// Workbook, when set, is synchronized in place instead of a fresh copy
	// of the template.
	Workbook string
	Backup   bool
	Progress bool
}

func buildCmd() *cobra.Command {
	var opts buildOptions
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Copy the template and synchronize the sales CSV into it",
		RunE: func(_ *cobra.Command, _ []string) error {
			opts.Progress = true
			_, err := runBuild(cfg, opts)
			return err
		},
	}
	cmd.Flags().StringVar(&opts.CSVPath, "csv", "", "sales CSV to load (default: <output-dir>/ventas_<date>.csv)")
	cmd.Flags().StringVar(&opts.Workbook, "xlsx", "", "existing workbook to update in place instead of copying the template")
	cmd.Flags().BoolVar(&opts.Backup, "backup", false, "copy the workbook to <name>.backup.xlsx before writing")
	return cmd
}

func runBuild(cfg *app.Config, opts buildOptions) (*workbook.Report, error) {
	csvPath := opts.CSVPath
	if csvPath == "" {
		csvPath = cfg.CSVPath()
	}

	target := opts.Workbook
	if target == "" {
		target = cfg.WorkbookPath()
		if err := workbook.CopyFile(cfg.Template, target); err != nil {
			return nil, fmt.Errorf("failed to copy template %s: %w", cfg.Template, err)
		}
		log.Info().Str("template", cfg.Template).Str("workbook", target).Msg("Template copied")
	}

	columns, rows, err := processing.ReadCSV(csvPath)
	if err != nil {
		return nil, err
	}

	syncOpts := workbook.Options{
		SheetName: cfg.TargetSheet,
		ScanLimit: cfg.ScanLimit,
		Backup:    opts.Backup,
	}
	if opts.Progress && len(rows) > 0 {
		bar := newProgressBar(len(rows), "Writing rows")
		syncOpts.Progress = func(done, _ int) {
			_ = bar.Set(done)
		}
		defer func() { _ = bar.Finish() }()
	}

	report, err := workbook.Synchronize(target, columns, rows, syncOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to synchronize %s: %w", target, err)
	}

	log.Info().
		Str("workbook", target).
		Str("sheet", report.Sheet).
		Int("rows", report.Rows).
		Int("last_row", report.LastRow).
		Int("blanked", report.Blanked).
		Int("formatted", report.Formatted).
		Int("formula_cells", report.FormulaCells).
		Int("merged_cells", report.MergedCells).
		Dur("elapsed", report.Elapsed.Round(time.Millisecond)).
		Msg("Workbook built")
	return report, nil
}
