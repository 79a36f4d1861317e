package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

func filePrepender(_ string) string {
	return fmt.Sprintf("**Version: %s**\n\n", NewVersionInfo().Version)
}

// docCmd is a doc generation command powered by cobra
var docCmd = &cobra.Command{
	Use:   "usage",
	Short: "Generates documentation",
	Long:  `Command to generate usage documentation, as one markdown file per command.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := os.MkdirAll(autokitFlags.doc.docTarget, 0755); err != nil {
			wrapFatalln("create doc target", err)
			return
		}
		err := doc.GenMarkdownTreeCustom(rootCmd, autokitFlags.doc.docTarget,
			filePrepender,
			func(s string) string { return s },
		)
		if err != nil {
			wrapFatalln("failed to generate doc", err)
		}
	},
}

func init() {
	requiredFlags := []string{addDocTargetFlag(docCmd)}
	for _, flag := range requiredFlags {
		if err := docCmd.MarkFlagRequired(flag); err != nil {
			wrapFatalln("mark required flag", err)
			return
		}
	}
	rootCmd.AddCommand(docCmd)
}
