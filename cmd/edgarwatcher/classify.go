package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"EdgarWatcher/internal/domain"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [title]...",
	Short: "Print the filing type of each title",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	for _, title := range args {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", domain.Classify(title), title)
	}
	return nil
}
