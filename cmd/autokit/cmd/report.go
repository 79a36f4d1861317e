package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report on the host",
	Long: `Reports host facts and the disk usage of the filesystem holding --path.

Probes run concurrently; a failing probe is listed in the report without hiding the others.`,
	Example: `% autokit report
SYSTEM REPORT 2024-06-01T12:00:00Z
Hostname:       web-1
OS:             linux debian 12
Kernel:         6.1.0-21-amd64
Uptime:         3 days
Disk (/):       41.3% used (38.2GB/92.5GB)`,
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "report", err)
		}(time.Now())

		optionInputs := newCliOptionInputs(config, &autokitFlags)
		sys, err := optionInputs.system()
		if err != nil {
			wrapFatalln("create system operations", err)
			return
		}

		ctx, stop := commandContext(0)
		defer stop()

		rep := sys.GenerateReport(ctx, autokitFlags.disk.path)
		if rep.Disk != nil {
			cliMetrics.DiskUsed(rep.Disk.Path, rep.Disk.Percent)
		}
		if err = optionInputs.render(rep); err != nil {
			wrapFatalln("render result", err)
			return
		}
	},
}

func init() {
	addDiskPathFlag(reportCmd)
	rootCmd.AddCommand(reportCmd)
}
