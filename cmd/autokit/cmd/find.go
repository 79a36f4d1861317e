package cmd

import (
	"github.com/spf13/cobra"
)

// findCmd groups the commands searching files
var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Commands to search for files",
}

func init() {
	rootCmd.AddCommand(findCmd)
}
