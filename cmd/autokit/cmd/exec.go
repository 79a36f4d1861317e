package cmd

import (
	"strings"
	"time"

	"github.com/linuxautomation/autokit/pkg/errors"
	"github.com/linuxautomation/autokit/pkg/sysops"
	"github.com/linuxautomation/autokit/pkg/sysops/status"
	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec [--check] [--timeout DURATION] (--shell COMMAND | -- NAME [ARG...])",
	Short: "Run a command and report its output and exit code",
	Long: `Runs a command, capturing its output, error output and exit code.

The command is either given as arguments after "--", executed directly, or as a single
command line with --shell, run through /bin/sh.

Without --check, a non-zero exit code is reported but autokit exits with 0.
With --check, autokit exits with the exit code of the command.
A command which cannot be found exits with 127.`,
	Example: `% autokit exec --check -- systemctl is-active nginx
active
systemctl is-active nginx: ok (exit code 0, 12ms)

% autokit exec --shell "df -h | tail -n +2"`,
	Args: func(cmd *cobra.Command, args []string) error {
		if autokitFlags.exec.shell != "" && len(args) > 0 {
			return errors.New("--shell and command arguments are mutually exclusive")
		}
		if autokitFlags.exec.shell == "" && len(args) == 0 {
			return errors.New("a command is required, as arguments or with --shell")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "exec", err)
		}(time.Now())

		optionInputs := newCliOptionInputs(config, &autokitFlags)
		sys, err := optionInputs.system()
		if err != nil {
			wrapFatalln("create system operations", err)
			return
		}

		ctx, stop := commandContext(autokitFlags.exec.timeout)
		defer stop()

		var res sysops.CommandResult
		if autokitFlags.exec.shell != "" {
			res, err = sys.ExecuteShell(ctx, autokitFlags.exec.shell, autokitFlags.exec.check)
		} else {
			res, err = sys.ExecuteCommand(ctx, autokitFlags.exec.check, args[0], args[1:]...)
		}
		if rerr := optionInputs.render(res); rerr != nil {
			wrapFatalln("render result", rerr)
			return
		}

		switch {
		case err == nil:
			return
		case errors.Is(err, status.ErrCommandNotFound):
			wrapFatalWithCodef(sysops.ExitNotFound, "command not found: %s", strings.Fields(res.Command)[0])
		case errors.Is(err, status.ErrCommandFailed) && res.ReturnCode > 0:
			wrapFatalWithCodef(res.ReturnCode, "%v", err)
		default:
			wrapFatalln("execute command", err)
		}
	},
}

func init() {
	addShellFlag(execCmd)
	addCheckFlag(execCmd)
	addTimeoutFlag(execCmd)

	rootCmd.AddCommand(execCmd)
}
