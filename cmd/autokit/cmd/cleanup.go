package cmd

import (
	"context"
	"time"

	"github.com/linuxautomation/autokit/pkg/cleanup"
	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Run the daily cleanup workflow",
	Long: `Runs the daily cleanup of a directory:
	* delete files older than --days (30 by default)
	* remove empty directories
	* with --organize, sort the remaining files by extension
	* check the disk usage

A report is printed unless --quiet is set.
Exits with status 0 when the cleanup succeeded, 1 otherwise: missing target, a cleanup of
the same target already running, or an interrupted run. Files which could not be deleted
are reported, they do not fail the run.

The defaults come from the "cleanup" section of the configuration file.`,
	Example: `% autokit cleanup --target /var/tmp

================================================================================
CLEANUP REPORT
================================================================================
Old files deleted: 12
Errors during deletion: 0
Space freed: 1.2GiB
Empty directories removed: 3
Errors during removal: 0
Disk usage: 41.3% used (38.2GB/92.5GB)
Status: success
================================================================================`,
	Run: func(cmd *cobra.Command, args []string) {
		t0 := time.Now()
		optionInputs := newCliOptionInputs(config, &autokitFlags)
		opts, err := optionInputs.cleanupOptions(cmd)
		if err != nil {
			wrapFatalln("invalid cleanup options", err)
			return
		}
		runner, err := optionInputs.cleanupRunner(autokitFlags.cleanup.dryRun)
		if err != nil {
			wrapFatalln("create cleanup", err)
			return
		}

		ctx, stop := commandContext(0)
		defer stop()

		res, err := runner.Run(ctx, opts)
		if !autokitFlags.cleanup.quiet {
			if rerr := optionInputs.render(res); rerr != nil {
				wrapFatalln("render result", rerr)
				return
			}
		}
		cliUsage(t0, "cleanup", err)
		if err != nil {
			wrapFatalWithCodef(1, "cleanup failed: %v", err)
			return
		}
	},
}

func (in *cliOptionInputs) cleanupOptions(cmd *cobra.Command) (cleanup.Options, error) {
	maxAge, err := in.maxAge(cmd, in.params.cleanup.days)
	if err != nil {
		return cleanup.Options{}, err
	}
	target := in.config.Cleanup.Target
	if target != "" {
		if target, err = sanitizePath(target); err != nil {
			return cleanup.Options{}, err
		}
	}
	return cleanup.Options{
		Target:   target,
		MaxAge:   maxAge,
		Organize: in.config.Cleanup.Organize,
		LockDir:  in.config.LockDir,
		LockWait: in.config.Cleanup.LockWait,
	}, nil
}

func (in *cliOptionInputs) cleanupRunner(dryRun bool) (*cleanup.Runner, error) {
	logger, err := in.getLogger()
	if err != nil {
		return nil, err
	}
	files, err := in.fileManager(dryRun)
	if err != nil {
		return nil, err
	}
	sys, err := in.system()
	if err != nil {
		return nil, err
	}
	return cleanup.New(files, sys, cleanup.WithLogger(logger), cleanup.WithMetrics(cliMetrics)), nil
}

// cleanupJob runs the cleanup as a scheduled job, printing the report of each run
func (in *cliOptionInputs) cleanupJob(runner *cleanup.Runner, opts cleanup.Options) func(context.Context) error {
	return func(ctx context.Context) error {
		res, err := runner.Run(ctx, opts)
		if !in.params.cleanup.quiet {
			if rerr := in.render(res); rerr != nil {
				return rerr
			}
		}
		flushMetrics()
		return err
	}
}

func init() {
	addCleanupTargetFlag(cleanupCmd)
	addQuietFlag(cleanupCmd)
	addCleanupOrganizeFlag(cleanupCmd)
	addDaysFlag(cleanupCmd, &autokitFlags.cleanup.days)
	addCleanupDryRunFlag(cleanupCmd)
	addExcludeFlag(cleanupCmd)
	addLockWaitFlag(cleanupCmd)

	bindConfigFlag("cleanup.target", cleanupCmd, "target")
	bindConfigFlag("cleanup.organize", cleanupCmd, "organize")
	bindConfigFlag("cleanup.lock_wait", cleanupCmd, "wait")
	bindConfigFlag("exclude", cleanupCmd, "exclude")

	rootCmd.AddCommand(cleanupCmd)
}
