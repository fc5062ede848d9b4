package main

import (
	"github.com/spf13/cobra"

	"EdgarWatcher/internal/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Consume new entries from Kafka until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	application, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Run(cmd.Context()); err != nil {
		logger.Error("application stopped", "error", err)
		return err
	}
	return nil
}
