package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var cleanEmptyCmd = &cobra.Command{
	Use:   "empty",
	Short: "Remove empty directories",
	Long: `Removes the empty directories found below a directory, deepest first: a directory
left empty once its empty children are gone is removed too. The directory itself is kept.

With --recursive=false, only the immediate sub-directories are considered.

Exits with ENOENT status when the directory does not exist.`,
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "clean empty", err)
		}(time.Now())

		dir, ok := requirePath(autokitFlags.files.path)
		if !ok {
			return
		}
		optionInputs := newCliOptionInputs(config, &autokitFlags)
		files, err := optionInputs.fileManager(autokitFlags.files.dryRun)
		if err != nil {
			wrapFatalln("create file manager", err)
			return
		}

		ctx, stop := commandContext(0)
		defer stop()

		res, err := files.CleanupEmptyDirs(ctx, dir, autokitFlags.clean.recursive)
		if err != nil {
			fatalOnError("remove empty directories", err)
			return
		}
		if !res.DryRun {
			cliMetrics.DirsRemoved(res.Removed)
		}
		cliMetrics.Errors("empty_dirs", res.Errors)
		if err = optionInputs.render(res); err != nil {
			wrapFatalln("render result", err)
			return
		}
	},
}

func init() {
	requiredFlags := []string{addPathFlag(cleanEmptyCmd, "The directory to clean up")}
	addCleanRecursiveFlag(cleanEmptyCmd)
	addDryRunFlag(cleanEmptyCmd)
	addExcludeFlag(cleanEmptyCmd)

	for _, flag := range requiredFlags {
		if err := cleanEmptyCmd.MarkFlagRequired(flag); err != nil {
			wrapFatalln("mark required flag", err)
			return
		}
	}

	bindConfigFlag("exclude", cleanEmptyCmd, "exclude")

	cleanCmd.AddCommand(cleanEmptyCmd)
}
