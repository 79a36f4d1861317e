package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var cleanOldCmd = &cobra.Command{
	Use:   "old",
	Short: "Delete files older than a number of days",
	Long: `Recursively deletes the regular files whose last modification is older than --days.

Symbolic links are neither followed nor deleted. Files which cannot be deleted are reported
and do not stop the command.

Exits with ENOENT status when the directory does not exist.`,
	Example: `% autokit clean old --path /var/tmp --days 7 --dry-run
  Deleted build-1234.tar
Deleted 1 old file(s) (512MiB), 0 error(s) (dry run)`,
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "clean old", err)
		}(time.Now())

		dir, ok := requirePath(autokitFlags.files.path)
		if !ok {
			return
		}
		optionInputs := newCliOptionInputs(config, &autokitFlags)
		maxAge, err := optionInputs.maxAge(cmd, autokitFlags.clean.days)
		if err != nil {
			wrapFatalln("invalid age", err)
			return
		}
		files, err := optionInputs.fileManager(autokitFlags.files.dryRun)
		if err != nil {
			wrapFatalln("create file manager", err)
			return
		}

		ctx, stop := commandContext(0)
		defer stop()

		res, err := files.CleanupOldFiles(ctx, dir, maxAge)
		if err != nil {
			fatalOnError("clean old files", err)
			return
		}
		if !res.DryRun {
			cliMetrics.FilesDeleted(res.Deleted, res.FreedBytes)
		}
		cliMetrics.Errors("old_files", res.Errors)
		if err = optionInputs.render(res); err != nil {
			wrapFatalln("render result", err)
			return
		}
	},
}

func init() {
	requiredFlags := []string{addPathFlag(cleanOldCmd, "The directory to clean up")}
	addDaysFlag(cleanOldCmd, &autokitFlags.clean.days)
	addDryRunFlag(cleanOldCmd)
	addExcludeFlag(cleanOldCmd)

	for _, flag := range requiredFlags {
		if err := cleanOldCmd.MarkFlagRequired(flag); err != nil {
			wrapFatalln("mark required flag", err)
			return
		}
	}

	bindConfigFlag("exclude", cleanOldCmd, "exclude")

	cleanCmd.AddCommand(cleanOldCmd)
}
