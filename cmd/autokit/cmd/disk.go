package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var diskCmd = &cobra.Command{
	Use:   "disk",
	Short: "Report disk usage",
	Long:  `Reports the size, used and free space of the filesystem holding a path.`,
	Example: `% autokit disk --path /var
Disk usage of /var: 41.3% used (38.2GB/92.5GB), 54.3GiB free`,
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "disk", err)
		}(time.Now())

		path, ok := requirePath(autokitFlags.disk.path)
		if !ok {
			return
		}
		optionInputs := newCliOptionInputs(config, &autokitFlags)
		sys, err := optionInputs.system()
		if err != nil {
			wrapFatalln("create system operations", err)
			return
		}

		ctx, stop := commandContext(0)
		defer stop()

		du, err := sys.DiskUsage(ctx, path)
		if err != nil {
			wrapFatalln("check disk usage", err)
			return
		}
		cliMetrics.DiskUsed(du.Path, du.Percent)
		if err = optionInputs.render(du); err != nil {
			wrapFatalln("render result", err)
			return
		}
	},
}

func init() {
	addDiskPathFlag(diskCmd)
	rootCmd.AddCommand(diskCmd)
}
