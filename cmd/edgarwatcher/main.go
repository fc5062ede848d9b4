package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"EdgarWatcher/internal/config"
	"EdgarWatcher/internal/logging"
)

// configPath is the --config flag shared by every command.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "edgarwatcher",
	Short: "Watch SEC EDGAR feeds, diff amended filings and notify",
	Long: `edgarwatcher classifies newly observed EDGAR filings, diffs registration
statements against their previous version, publishes the diff and notifies.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML config (default $EDGAR_WATCHER_CONFIG)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.NewWithFormat(os.Stdout, cfg.Logging.Level, cfg.Logging.Format), nil
}
