package cmd

import (
	"runtime"
	"runtime/debug"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

// Set at link time, e.g. -ldflags "-X github.com/linuxautomation/autokit/cmd/autokit/cmd.Version=v1.2.0"
var (
	Version   string
	BuildDate string
	GitCommit string
)

// VersionInfo describes the running binary
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"gitCommit,omitempty" yaml:"gitCommit,omitempty"`
	Modified  bool   `json:"modified,omitempty" yaml:"modified,omitempty"`
	BuildDate string `json:"buildDate,omitempty" yaml:"buildDate,omitempty"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
	Platform  string `json:"platform" yaml:"platform"`
}

// NewVersionInfo prefers the link time values, then the module and vcs
// stamps of the go toolchain.
func NewVersionInfo() VersionInfo {
	ver := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		if ver.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			ver.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if ver.GitCommit == "" {
					ver.GitCommit = s.Value
				}
			case "vcs.time":
				if ver.BuildDate == "" {
					ver.BuildDate = s.Value
				}
			case "vcs.modified":
				ver.Modified = s.Value == "true"
			}
		}
	}
	if ver.Version == "" {
		ver.Version = "dev"
	}
	return ver
}

func (v VersionInfo) String() string {
	table := uitable.New()
	table.Separator = " "
	table.AddRow("Version:", v.Version)
	if v.GitCommit != "" {
		commit := v.GitCommit
		if v.Modified {
			commit += " (modified)"
		}
		table.AddRow("Commit:", commit)
	}
	if v.BuildDate != "" {
		table.AddRow("Built:", v.BuildDate)
	}
	table.AddRow("Go:", v.GoVersion+" "+v.Platform)
	return table.String()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of autokit",
	Long: `Print the version of autokit, the commit it was built from and the go
toolchain used.

Release builds set these at link time. Other builds report what the go
toolchain stamped into the binary, or "dev".`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := newCliOptionInputs(config, &autokitFlags).render(NewVersionInfo()); err != nil {
			wrapFatalln("render version", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
