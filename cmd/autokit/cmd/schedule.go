package cmd

import (
	"context"
	"net"
	"time"

	"github.com/linuxautomation/autokit/pkg/httpd"
	"github.com/linuxautomation/autokit/pkg/scheduler"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	cleanupJobName = "daily-cleanup"
	stopTimeout    = 30 * time.Second
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the daily cleanup on a schedule",
	Long: `Keeps running and starts the daily cleanup workflow on a cron schedule, until
interrupted with SIGINT or SIGTERM. A run still in progress when the next one is due
makes the latter skipped.

The schedule is a 5 field cron expression ("0 3 * * *") or a descriptor ("@daily",
"@every 6h"). It defaults to the schedule.cron configuration key, then "@daily".

Cleanup flags are the same as for "autokit cleanup". Metrics are written to --metrics-file
after every run. With --listen, they are also served on /metrics, next to a /healthz status.`,
	Example: `% autokit schedule --cron "30 2 * * *" --target /var/tmp --metrics-file /var/lib/node_exporter/autokit.prom`,
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "schedule", err)
		}(time.Now())

		optionInputs := newCliOptionInputs(config, &autokitFlags)
		logger, err := optionInputs.getLogger()
		if err != nil {
			wrapFatalln("create logger", err)
			return
		}
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

		sched := scheduler.New(scheduler.WithLogger(logger))
		job := optionInputs.cleanupJob(runner, opts)
		if err = sched.Add(config.Schedule.Cron, cleanupJobName, job); err != nil {
			wrapFatalln("schedule cleanup", err)
			return
		}

		ctx, stop := signalContext()
		defer stop()

		if autokitFlags.schedule.runNow {
			if jerr := job(ctx); jerr != nil {
				logger.Error("initial cleanup failed", zap.Error(jerr))
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		if config.Schedule.Listen != "" {
			ln, lerr := net.Listen("tcp", config.Schedule.Listen)
			if lerr != nil {
				err = lerr
				wrapFatalln("listen for metrics", err)
				return
			}
			handler := httpd.Handler(cliMetrics.Registry(), func() httpd.Health {
				return httpd.JobHealth(cleanupJobName, sched.Next(cleanupJobName))
			}, logger)
			g.Go(func() error {
				return httpd.Serve(gctx, ln, handler, logger)
			})
		}

		sched.Start()
		infoLogger.Printf("Cleanup of %s scheduled %q, next run at %s",
			opts.Target, config.Schedule.Cron, sched.Next(cleanupJobName).Format(time.RFC3339))

		<-gctx.Done()
		logger.Info("stopping scheduler")

		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err = sched.Stop(stopCtx); err != nil {
			wrapFatalln("stop scheduler", err)
			return
		}
		if err = g.Wait(); err != nil {
			wrapFatalln("metrics server", err)
			return
		}
	},
}

func init() {
	addCronFlag(scheduleCmd)
	addRunNowFlag(scheduleCmd)
	addListenFlag(scheduleCmd)
	addCleanupTargetFlag(scheduleCmd)
	addQuietFlag(scheduleCmd)
	addCleanupOrganizeFlag(scheduleCmd)
	addDaysFlag(scheduleCmd, &autokitFlags.cleanup.days)
	addCleanupDryRunFlag(scheduleCmd)
	addExcludeFlag(scheduleCmd)
	addLockWaitFlag(scheduleCmd)

	bindConfigFlag("schedule.cron", scheduleCmd, "cron")
	bindConfigFlag("schedule.listen", scheduleCmd, "listen")
	bindConfigFlag("cleanup.target", scheduleCmd, "target")
	bindConfigFlag("cleanup.organize", scheduleCmd, "organize")
	bindConfigFlag("cleanup.lock_wait", scheduleCmd, "wait")
	bindConfigFlag("exclude", scheduleCmd, "exclude")

	rootCmd.AddCommand(scheduleCmd)
}
