package cmd

import (
	"time"

	"github.com/linuxautomation/autokit/pkg/fileops"
	"github.com/linuxautomation/autokit/pkg/watch"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "Sort the files of a directory by extension",
	Long: `Moves every file found directly under a directory into a sub-directory named after
its extension, e.g. "report.pdf" goes to "pdf/". Files without an extension go to "no_extension/".

Existing files are never overwritten. Sub-directories are left alone.

With --watch, keeps running and sorts new files as they arrive, until interrupted.
Exits with ENOENT status when the directory does not exist.`,
	Example: `% autokit organize --path ~/Downloads
Moved invoice.pdf to pdf/
Moved holidays.jpg to jpg/
Organized 2 file(s), 0 error(s)`,
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "organize", err)
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

		res, err := files.OrganizeByExtension(ctx, dir)
		if err != nil {
			fatalOnError("organize files", err)
			return
		}
		cliMetrics.FilesOrganized(res.Organized)
		cliMetrics.Errors("organize", res.Errors)
		if err = optionInputs.render(res); err != nil {
			wrapFatalln("render result", err)
			return
		}

		if !autokitFlags.organize.watch {
			return
		}

		logger, _ := optionInputs.getLogger()
		w := watch.New(dir, files,
			watch.WithLogger(logger),
			watch.WithDebounce(config.Watch.Debounce),
			watch.OnOrganized(func(r fileops.OrganizeResult) {
				cliMetrics.FilesOrganized(r.Organized)
				cliMetrics.Errors("organize", r.Errors)
				for _, d := range r.Details {
					infoLogger.Println(d)
				}
				flushMetrics()
			}),
		)
		infoLogger.Printf("Watching %s for new files (Ctrl-C to stop)", dir)
		if err = w.Run(ctx); err != nil {
			wrapFatalln("watch directory", err)
			return
		}
		logger.Info("watch stopped", zap.Int64("organized", w.Organized()), zap.Int64("errors", w.Failed()))
	},
}

func init() {
	requiredFlags := []string{addPathFlag(organizeCmd, "The directory to organize")}
	addDryRunFlag(organizeCmd)
	addWatchFlag(organizeCmd)
	addDebounceFlag(organizeCmd)
	addExcludeFlag(organizeCmd)

	for _, flag := range requiredFlags {
		if err := organizeCmd.MarkFlagRequired(flag); err != nil {
			wrapFatalln("mark required flag", err)
			return
		}
	}
	bindConfigFlag("watch.debounce", organizeCmd, "debounce")
	bindConfigFlag("exclude", organizeCmd, "exclude")

	rootCmd.AddCommand(organizeCmd)
}
