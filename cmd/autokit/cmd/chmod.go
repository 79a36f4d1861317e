package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var chmodCmd = &cobra.Command{
	Use:   "chmod",
	Short: "Change permissions of a file or directory tree",
	Long: `Sets the permission bits of a path.

With --recursive on a directory, every file and directory below it is changed, but not the
directory itself.

Exits with ENOENT status when the path does not exist.`,
	Example: `% autokit chmod --path /srv/www --mode 0755 --recursive
Changed permissions to 0755 on 42 path(s), 0 error(s)`,
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "chmod", err)
		}(time.Now())

		mode, err := parseMode(autokitFlags.chmod.mode)
		if err != nil {
			wrapFatalln("invalid mode", err)
			return
		}
		path, ok := requirePath(autokitFlags.files.path)
		if !ok {
			return
		}
		optionInputs := newCliOptionInputs(config, &autokitFlags)
		files, err := optionInputs.fileManager(false)
		if err != nil {
			wrapFatalln("create file manager", err)
			return
		}

		ctx, stop := commandContext(0)
		defer stop()

		res, err := files.ChangePermissions(ctx, path, mode, autokitFlags.chmod.recursive)
		if err != nil {
			fatalOnError("change permissions", err)
			return
		}
		cliMetrics.Errors("chmod", res.Errors)
		if err = optionInputs.render(res); err != nil {
			wrapFatalln("render result", err)
			return
		}
	},
}

func init() {
	requiredFlags := []string{
		addPathFlag(chmodCmd, "The file or directory to change"),
		addModeFlag(chmodCmd),
	}
	addChmodRecursiveFlag(chmodCmd)
	addExcludeFlag(chmodCmd)

	for _, flag := range requiredFlags {
		if err := chmodCmd.MarkFlagRequired(flag); err != nil {
			wrapFatalln("mark required flag", err)
			return
		}
	}

	bindConfigFlag("exclude", chmodCmd, "exclude")

	rootCmd.AddCommand(chmodCmd)
}
