package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/docker/go-units"
	"github.com/linuxautomation/autokit/pkg/dlogger"
	"github.com/linuxautomation/autokit/pkg/fileops"
	"github.com/linuxautomation/autokit/pkg/report"
	"github.com/linuxautomation/autokit/pkg/sysops"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultLargeFileSize = "100MB"

type flagsT struct {
	root struct {
		logLevel    string
		logDir      string
		output      string
		metricsFile string
		lockDir     string
		cpuProf     bool
	}
	files struct {
		path    string
		dryRun  bool
		exclude []string
	}
	organize struct {
		watch    bool
		debounce time.Duration
	}
	clean struct {
		days      int
		recursive bool
	}
	chmod struct {
		mode      string
		recursive bool
	}
	find struct {
		size string
	}
	exec struct {
		shell   string
		check   bool
		timeout time.Duration
	}
	disk struct {
		path string
	}
	cleanup struct {
		target   string
		quiet    bool
		organize bool
		days     int
		dryRun   bool
		wait     time.Duration
	}
	schedule struct {
		cron   string
		runNow bool
		listen string
	}
	doc struct {
		docTarget string
	}
}

var autokitFlags = flagsT{}

func addLogLevelFlag(cmd *cobra.Command) string {
	logLevel := "log-level"
	cmd.PersistentFlags().StringVar(&autokitFlags.root.logLevel, logLevel, dlogger.LogLevelInfo,
		`The logging level: "debug", "info", "warn", "error" or "none"`)
	return logLevel
}

func addLogDirFlag(cmd *cobra.Command) string {
	logDir := "log-dir"
	cmd.PersistentFlags().StringVar(&autokitFlags.root.logDir, logDir, "",
		"Also write debug logs to a daily file in this directory, e.g. "+dlogger.DefaultLogDir)
	return logDir
}

func addOutputFlag(cmd *cobra.Command) string {
	output := "output"
	cmd.PersistentFlags().StringVarP(&autokitFlags.root.output, output, "o", string(report.Text),
		fmt.Sprintf("The output format, one of %v", report.Formats()))
	return output
}

func addMetricsFileFlag(cmd *cobra.Command) string {
	metricsFile := "metrics-file"
	cmd.PersistentFlags().StringVar(&autokitFlags.root.metricsFile, metricsFile, "",
		"Write prometheus metrics to this file, for the node exporter textfile collector")
	return metricsFile
}

func addLockDirFlag(cmd *cobra.Command) string {
	lockDir := "lock-dir"
	cmd.PersistentFlags().StringVar(&autokitFlags.root.lockDir, lockDir, os.TempDir(),
		"The directory holding cleanup lock files")
	return lockDir
}

func addCPUProfFlag(cmd *cobra.Command) string {
	c := "cpuprof"
	cmd.PersistentFlags().BoolVar(&autokitFlags.root.cpuProf, c, false, "Toggle runtime profiling, to cpu.prof")
	_ = cmd.PersistentFlags().MarkHidden(c)
	return c
}

func addPathFlag(cmd *cobra.Command, usage string) string {
	path := "path"
	cmd.Flags().StringVarP(&autokitFlags.files.path, path, "p", "", usage)
	return path
}

func addExcludeFlag(cmd *cobra.Command) string {
	exclude := "exclude"
	cmd.Flags().StringSliceVarP(&autokitFlags.files.exclude, exclude, "x", nil,
		`Skip the paths matching these glob patterns, e.g. "*.keep" or "cache/**" (repeatable)`)
	return exclude
}

func addDryRunFlag(cmd *cobra.Command) string {
	dryRun := "dry-run"
	cmd.Flags().BoolVar(&autokitFlags.files.dryRun, dryRun, false, "Report what would be done, without changing anything")
	return dryRun
}

func addWatchFlag(cmd *cobra.Command) string {
	watch := "watch"
	cmd.Flags().BoolVarP(&autokitFlags.organize.watch, watch, "w", false,
		"Keep running and organize new files as they arrive")
	return watch
}

func addDebounceFlag(cmd *cobra.Command) string {
	debounce := "debounce"
	cmd.Flags().DurationVar(&autokitFlags.organize.debounce, debounce, 0,
		"How long a new file must stay unchanged before it is moved (defaults to watch.debounce)")
	return debounce
}

func addDaysFlag(cmd *cobra.Command, days *int) string {
	name := "days"
	cmd.Flags().IntVarP(days, name, "d", int(fileops.DefaultMaxAge/(24*time.Hour)), "Delete files older than this number of days")
	return name
}

func addCleanRecursiveFlag(cmd *cobra.Command) string {
	recursive := "recursive"
	cmd.Flags().BoolVarP(&autokitFlags.clean.recursive, recursive, "r", true, "Also remove nested empty directories")
	return recursive
}

func addModeFlag(cmd *cobra.Command) string {
	mode := "mode"
	cmd.Flags().StringVarP(&autokitFlags.chmod.mode, mode, "m", "", "The octal permission bits to set, e.g. 0755")
	return mode
}

func addChmodRecursiveFlag(cmd *cobra.Command) string {
	recursive := "recursive"
	cmd.Flags().BoolVarP(&autokitFlags.chmod.recursive, recursive, "r", false,
		"Change every file and directory below path (path itself is left untouched)")
	return recursive
}

func addSizeFlag(cmd *cobra.Command) string {
	size := "size"
	cmd.Flags().StringVarP(&autokitFlags.find.size, size, "s", defaultLargeFileSize,
		`Report files larger than this size, e.g. "100MB" or "1.5GiB"`)
	return size
}

func addShellFlag(cmd *cobra.Command) string {
	shell := "shell"
	cmd.Flags().StringVar(&autokitFlags.exec.shell, shell, "", "Run this command line through "+sysops.DefaultShell)
	return shell
}

func addCheckFlag(cmd *cobra.Command) string {
	check := "check"
	cmd.Flags().BoolVar(&autokitFlags.exec.check, check, false, "Fail with the command's exit code when it does not exit with 0")
	return check
}

func addTimeoutFlag(cmd *cobra.Command) string {
	timeout := "timeout"
	cmd.Flags().DurationVar(&autokitFlags.exec.timeout, timeout, 0, "Kill the command after this duration (0 for no limit)")
	return timeout
}

func addDiskPathFlag(cmd *cobra.Command) string {
	path := "path"
	cmd.Flags().StringVarP(&autokitFlags.disk.path, path, "p", "/", "A path on the filesystem to report on")
	return path
}

func addCleanupTargetFlag(cmd *cobra.Command) string {
	target := "target"
	cmd.Flags().StringVarP(&autokitFlags.cleanup.target, target, "t", "", "The directory to clean up (defaults to cleanup.target)")
	return target
}

func addQuietFlag(cmd *cobra.Command) string {
	quiet := "quiet"
	cmd.Flags().BoolVarP(&autokitFlags.cleanup.quiet, quiet, "q", false, "Suppress the report")
	return quiet
}

func addCleanupOrganizeFlag(cmd *cobra.Command) string {
	organize := "organize"
	cmd.Flags().BoolVar(&autokitFlags.cleanup.organize, organize, false, "Also organize remaining files by extension")
	return organize
}

func addCleanupDryRunFlag(cmd *cobra.Command) string {
	dryRun := "dry-run"
	cmd.Flags().BoolVar(&autokitFlags.cleanup.dryRun, dryRun, false, "Report what would be done, without changing anything")
	return dryRun
}

func addLockWaitFlag(cmd *cobra.Command) string {
	wait := "wait"
	cmd.Flags().DurationVar(&autokitFlags.cleanup.wait, wait, 0,
		"Wait up to this duration for a cleanup of the same target to finish (defaults to cleanup.lock_wait)")
	return wait
}

func addCronFlag(cmd *cobra.Command) string {
	cron := "cron"
	cmd.Flags().StringVar(&autokitFlags.schedule.cron, cron, "",
		`When to run, as a 5 field cron expression or a descriptor such as "@daily" (defaults to schedule.cron)`)
	return cron
}

func addRunNowFlag(cmd *cobra.Command) string {
	runNow := "run-now"
	cmd.Flags().BoolVar(&autokitFlags.schedule.runNow, runNow, false, "Also run once at startup")
	return runNow
}

func addListenFlag(cmd *cobra.Command) string {
	listen := "listen"
	cmd.Flags().StringVar(&autokitFlags.schedule.listen, listen, "",
		`Serve /metrics and /healthz on this address, e.g. ":9101"`)
	return listen
}

func addDocTargetFlag(cmd *cobra.Command) string {
	target := "target"
	cmd.Flags().StringVar(&autokitFlags.doc.docTarget, target, "", "The target directory for the generated markdown")
	return target
}

/** combined config and parameters to internal objects */

type cliOptionInputs struct {
	config *CLIConfig
	params *flagsT
}

func newCliOptionInputs(config *CLIConfig, params *flagsT) *cliOptionInputs {
	return &cliOptionInputs{
		config: config,
		params: params,
	}
}

func (in *cliOptionInputs) getLogger() (*zap.Logger, error) {
	var err error
	in.config.onceLogger.Do(func() {
		opts := []dlogger.Option{dlogger.Level(in.config.LogLevel)}
		if in.config.LogDir != "" {
			opts = append(opts, dlogger.LogDir(in.config.LogDir))
		}
		in.config.logger, err = dlogger.GetLogger(opts...)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set log level: %v", err)
	}
	if in.config.logger == nil {
		return nil, fmt.Errorf("logger unavailable")
	}
	return in.config.logger, nil
}

func (in *cliOptionInputs) fileManager(dryRun bool) (*fileops.Manager, error) {
	logger, err := in.getLogger()
	if err != nil {
		return nil, err
	}
	if err = fileops.ValidatePatterns(in.config.Exclude); err != nil {
		return nil, err
	}
	return fileops.New(afero.NewOsFs(),
		fileops.WithLogger(logger),
		fileops.WithDryRun(dryRun),
		fileops.WithExclude(in.config.Exclude...),
	), nil
}

func (in *cliOptionInputs) system() (*sysops.System, error) {
	logger, err := in.getLogger()
	if err != nil {
		return nil, err
	}
	return sysops.New(sysops.WithLogger(logger)), nil
}

func (in *cliOptionInputs) largeFileThreshold(cmd *cobra.Command) (int64, error) {
	size := in.config.LargeFiles.Threshold
	if cmd.Flags().Changed("size") || size == "" {
		size = in.params.find.size
	}
	threshold, err := units.RAMInBytes(size)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", size, err)
	}
	return threshold, nil
}

func (in *cliOptionInputs) maxAge(cmd *cobra.Command, days int) (time.Duration, error) {
	if !cmd.Flags().Changed("days") && in.config.Cleanup.MaxAge > 0 {
		return in.config.Cleanup.MaxAge, nil
	}
	if days < 0 {
		return 0, fmt.Errorf("invalid number of days: %d", days)
	}
	return time.Duration(days) * 24 * time.Hour, nil
}

func parseMode(mode string) (os.FileMode, error) {
	m, err := strconv.ParseUint(mode, 8, 32)
	if err != nil || m > 0o777 {
		return 0, fmt.Errorf("invalid mode %q, expected octal permission bits such as 0755", mode)
	}
	return os.FileMode(m), nil
}

// render v to stdout in the configured output format
func (in *cliOptionInputs) render(v interface{}) error {
	format, err := report.ParseFormat(in.config.Output)
	if err != nil {
		return err
	}
	return report.Render(infoLogger.Writer(), format, v)
}

// commandContext is cancelled by SIGINT or SIGTERM, and after timeout when positive
func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signalContext()
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
