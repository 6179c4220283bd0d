package main

import (
	"fmt"
	"os"
	"time"

	"touch_daily/internal/app"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	settings = app.NewViper()
	cfg      *app.Config
)

func bindRootFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("date", "", "target day as YYYY-MM-DD (default: today, env DAILY_DATE)")
	flags.String("output-dir", "", "directory for the CSV and the workbook (env DAILY_OUTPUT_DIR)")
	flags.String("template", "", "workbook template to copy (env DAILY_TEMPLATE)")
	flags.String("sheet", "", "sheet that receives the sales rows (env TARGET_SHEET)")
	flags.String("creds", "", "Google service account JSON (env GOOGLE_SA_JSON)")

	bindFlag(flags, app.KeyDate, "date")
	bindFlag(flags, app.KeyOutputDir, "output-dir")
	bindFlag(flags, app.KeyTemplate, "template")
	bindFlag(flags, app.KeyTargetSheet, "sheet")
	bindFlag(flags, app.KeyGoogleCreds, "creds")
}

// bindFlag lets a flag override the environment variable key. Unset flags
// fall through to the environment and then to the defaults.
func bindFlag(flags *pflag.FlagSet, key, name string) {
	_ = settings.BindPFlag(key, flags.Lookup(name))
}

func initConfig(_ *cobra.Command, _ []string) error {
	log.Debug().Msg("Starting application")
	runID := app.SetupEnvironment()

	loaded, err := app.LoadConfig(settings, time.Now())
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = loaded

	log.Debug().Str("run_id", runID).Msg("Environment ready")
	return nil
}

func requireSetting(value, key string) error {
	if value == "" {
		return fmt.Errorf("%s is required", key)
	}
	return nil
}

// newProgressBar reports row writes on stderr.
func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionClearOnFinish(),
	)
}
