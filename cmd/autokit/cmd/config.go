package cmd

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// CLIConfig describes the CLI configuration.
//
// Keys are read from autokit.yaml, then AUTOKIT_* environment variables, then flags.
type CLIConfig struct {
	LogLevel    string   `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogDir      string   `json:"log_dir" yaml:"log_dir" mapstructure:"log_dir"`
	Output      string   `json:"output" yaml:"output" mapstructure:"output"`
	MetricsFile string   `json:"metrics_file" yaml:"metrics_file" mapstructure:"metrics_file"`
	LockDir     string   `json:"lock_dir" yaml:"lock_dir" mapstructure:"lock_dir"`
	Exclude     []string `json:"exclude" yaml:"exclude" mapstructure:"exclude"`

	Cleanup struct {
		Target   string        `json:"target" yaml:"target" mapstructure:"target"`
		MaxAge   time.Duration `json:"max_age" yaml:"max_age" mapstructure:"max_age"`
		Organize bool          `json:"organize" yaml:"organize" mapstructure:"organize"`
		LockWait time.Duration `json:"lock_wait" yaml:"lock_wait" mapstructure:"lock_wait"`
	} `json:"cleanup" yaml:"cleanup" mapstructure:"cleanup"`

	Schedule struct {
		Cron   string `json:"cron" yaml:"cron" mapstructure:"cron"`
		Listen string `json:"listen" yaml:"listen" mapstructure:"listen"`
	} `json:"schedule" yaml:"schedule" mapstructure:"schedule"`

	Watch struct {
		Debounce time.Duration `json:"debounce" yaml:"debounce" mapstructure:"debounce"`
	} `json:"watch" yaml:"watch" mapstructure:"watch"`

	LargeFiles struct {
		Threshold string `json:"threshold" yaml:"threshold" mapstructure:"threshold"`
	} `json:"large_files" yaml:"large_files" mapstructure:"large_files"`

	onceLogger sync.Once
	logger     *zap.Logger
}
