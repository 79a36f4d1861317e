package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var findLargeCmd = &cobra.Command{
	Use:   "large",
	Short: "List files larger than a size",
	Long: `Recursively lists the files larger than --size, biggest first.

Sizes accept binary units: "100MB" is 100 MiB.
Exits with ENOENT status when the directory does not exist.`,
	Example: `% autokit find large --path /var/log --size 50MB
SIZE    PATH
1.2GB   /var/log/journal/system.journal
60MB    /var/log/syslog.1`,
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "find large", err)
		}(time.Now())

		optionInputs := newCliOptionInputs(config, &autokitFlags)
		threshold, err := optionInputs.largeFileThreshold(cmd)
		if err != nil {
			wrapFatalln("invalid size", err)
			return
		}
		dir, ok := requirePath(autokitFlags.files.path)
		if !ok {
			return
		}
		files, err := optionInputs.fileManager(false)
		if err != nil {
			wrapFatalln("create file manager", err)
			return
		}

		ctx, stop := commandContext(0)
		defer stop()

		large, err := files.FindLargeFiles(ctx, dir, threshold)
		if err != nil {
			fatalOnError("find large files", err)
			return
		}
		if err = optionInputs.render(large); err != nil {
			wrapFatalln("render result", err)
			return
		}
	},
}

func init() {
	requiredFlags := []string{addPathFlag(findLargeCmd, "The directory to search")}
	addSizeFlag(findLargeCmd)
	addExcludeFlag(findLargeCmd)

	for _, flag := range requiredFlags {
		if err := findLargeCmd.MarkFlagRequired(flag); err != nil {
			wrapFatalln("mark required flag", err)
			return
		}
	}

	bindConfigFlag("exclude", findLargeCmd, "exclude")

	findCmd.AddCommand(findLargeCmd)
}
