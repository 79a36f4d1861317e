package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/linuxautomation/autokit/pkg/cleanup"
	"github.com/linuxautomation/autokit/pkg/dlogger"
	"github.com/linuxautomation/autokit/pkg/fileops"
	"github.com/linuxautomation/autokit/pkg/report"
	"github.com/linuxautomation/autokit/pkg/scheduler"
	"github.com/linuxautomation/autokit/pkg/watch"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// configEnv points to an explicit config file
const configEnv = "AUTOKIT_CONFIG"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "autokit",
	Short: "Autokit automates routine Linux host chores",
	Long: `Autokit automates routine Linux host chores.

It organizes, expires and prunes files, changes permissions and finds large files.
It runs commands, reports on disk usage, processes and the host.

The daily cleanup workflow combines these operations. It can run once from cron or a
systemd timer, or unattended with "autokit schedule".
`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if autokitFlags.root.cpuProf {
			f, err := os.Create("cpu.prof")
			if err != nil {
				wrapFatalln("create cpu profile", err)
				return
			}
			_ = pprof.StartCPUProfile(f)
		}
	},
	// *PostRun functions aren't called in case of a panic() in Run
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if autokitFlags.root.cpuProf {
			pprof.StopCPUProfile()
		}
	},
}

var config *CLIConfig

// configFlags are the flags overriding configuration keys. Several commands may
// declare a flag for the same key.
var configFlags = map[string][]*pflag.Flag{}

func bindConfigFlag(key string, cmd *cobra.Command, name string) {
	f := cmd.Flags().Lookup(name)
	if f == nil {
		f = cmd.PersistentFlags().Lookup(name)
	}
	if f == nil {
		panic(fmt.Sprintf("no flag %q on command %q", name, cmd.Name()))
	}
	configFlags[key] = append(configFlags[key], f)
}

// changedFlag picks the flag set on the command line, if any
func changedFlag(flags []*pflag.Flag) *pflag.Flag {
	for _, f := range flags {
		if f.Changed {
			return f
		}
	}
	return flags[0]
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		osExit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	addLogLevelFlag(rootCmd)
	addLogDirFlag(rootCmd)
	addOutputFlag(rootCmd)
	addMetricsFileFlag(rootCmd)
	addLockDirFlag(rootCmd)
	addCPUProfFlag(rootCmd)

	bindConfigFlag("log_level", rootCmd, "log-level")
	bindConfigFlag("log_dir", rootCmd, "log-dir")
	bindConfigFlag("output", rootCmd, "output")
	bindConfigFlag("metrics_file", rootCmd, "metrics-file")
	bindConfigFlag("lock_dir", rootCmd, "lock-dir")
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("log_level", dlogger.LogLevelInfo)
	v.SetDefault("log_dir", "")
	v.SetDefault("output", string(report.Text))
	v.SetDefault("metrics_file", "")
	v.SetDefault("lock_dir", os.TempDir())
	v.SetDefault("exclude", []string{})
	v.SetDefault("cleanup.target", cleanup.DefaultTarget)
	v.SetDefault("cleanup.max_age", fileops.DefaultMaxAge)
	v.SetDefault("cleanup.organize", false)
	v.SetDefault("cleanup.lock_wait", time.Duration(0))
	v.SetDefault("schedule.cron", scheduler.DefaultSpec)
	v.SetDefault("schedule.listen", "")
	v.SetDefault("watch.debounce", watch.DefaultDebounce)
	v.SetDefault("large_files.threshold", defaultLargeFileSize)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	v := viper.New()
	setConfigDefaults(v)

	if os.Getenv(configEnv) != "" {
		v.SetConfigFile(os.Getenv(configEnv))
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.autokit")
		v.AddConfigPath("/etc/autokit")
		v.SetConfigName("autokit")
	}

	v.SetEnvPrefix("autokit")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // read in environment variables that match

	for key, flags := range configFlags {
		flag := changedFlag(flags)
		if err := v.BindPFlag(key, flag); err != nil {
			wrapFatalln("binding flag "+flag.Name, err)
			return
		}
	}

	// If a config file is found, read it in.
	if err := v.ReadInConfig(); err == nil {
		log.Println("Using config file:", v.ConfigFileUsed())
	} else {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			wrapFatalln("failed to read config file", err)
			return
		}
	}

	var err error
	config, err = newConfig(v)
	if err != nil {
		wrapFatalln("invalid configuration", err)
		return
	}
}

func newConfig(v *viper.Viper) (*CLIConfig, error) {
	var c CLIConfig
	err := v.Unmarshal(&c, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, err
	}
	if _, err := report.ParseFormat(c.Output); err != nil {
		return nil, err
	}
	return &c, nil
}
