package main

import (
	"github.com/spf13/cobra"

	"EdgarWatcher/internal/app"
)

var replayCmd = &cobra.Command{
	Use:   "replay [events.jsonl]",
	Short: "Process events from a JSON-lines file",
	Long: `Processes one {"feed": {...}, "entry": {...}} object per line, exactly as if the
events had arrived on the topic. With --record every entry is stored once handled,
so later lines find earlier ones as their previous filing.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

// replayRecord is a flag for the replay command.
var replayRecord bool

func init() {
	replayCmd.Flags().BoolVar(&replayRecord, "record", false, "Store each entry after it is processed")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	application, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	return application.Replay(cmd.Context(), args[0], replayRecord)
}
