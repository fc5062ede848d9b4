package main

import (
	"github.com/spf13/cobra"

	"EdgarWatcher/internal/app"
)

var diffCmd = &cobra.Command{
	Use:   "diff [old-url] [new-url]",
	Short: "Render a diff page for two documents",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

// diffOutput is a flag for the diff command.
var diffOutput string

func init() {
	diffCmd.Flags().StringVarP(&diffOutput, "output", "o", "diff.html", "File to write the page to")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	return app.Diff(cmd.Context(), cfg, logger, args[0], args[1], diffOutput)
}
