package cmd

import (
	"github.com/spf13/cobra"
)

// cleanCmd groups the commands removing files and directories
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Commands to remove old files and empty directories",
	Long: `Commands to remove old files and empty directories.

Use "autokit cleanup" to run both as the daily cleanup workflow.`,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
