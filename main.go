package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "touch_daily",
	Short: "Daily TouchExpress sales export with purchase-based cost",
	Long: `touch_daily fetches the day's sales from TouchExpress, prices every line
with the latest purchase cost of the month and writes the result into the
Daily workbook without disturbing its formulas.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

func init() {
	bindRootFlags(rootCmd)

	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(pushCmd())
	rootCmd.AddCommand(uploadCmd())
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Warn().Msg("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		log.Error().Err(err).Str("command", commandName()).Msg("Command failed")
		os.Exit(1)
	}
}

func commandName() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	return rootCmd.Use
}
