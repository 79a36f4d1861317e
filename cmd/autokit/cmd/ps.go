package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

var psCmd = &cobra.Command{
	Use:   "ps NAME",
	Short: "Look up running processes by name",
	Long: `Lists the running processes whose name or command line contains NAME.

Prints the matching processes if any, exits with ENOENT status otherwise.`,
	Example: `% autokit ps sshd
PID     USER    NAME    COMMAND
812     root    sshd    sshd: /usr/sbin/sshd -D [listener] 0 of 10-100 startups`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "ps", err)
		}(time.Now())

		optionInputs := newCliOptionInputs(config, &autokitFlags)
		sys, err := optionInputs.system()
		if err != nil {
			wrapFatalln("create system operations", err)
			return
		}

		ctx, stop := commandContext(0)
		defer stop()

		info, err := sys.FindProcesses(ctx, args[0])
		if err != nil {
			wrapFatalln("look up processes", err)
			return
		}
		if err = optionInputs.render(info); err != nil {
			wrapFatalln("render result", err)
			return
		}
		if !info.Found {
			wrapFatalWithCodef(int(unix.ENOENT), "didn't find process %q", args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(psCmd)
}
