package cmd

import (
	"log"
	"time"

	"github.com/linuxautomation/autokit/pkg/metrics"
	"go.uber.org/zap"
)

// cliMetrics lives as long as the process, across scheduled runs
var cliMetrics = metrics.New()

// cliUsage records a usage metric in the CLI context in a single go.
// This is intended to be used in some defer statement.
//
// Metrics are flushed to the metrics file, when configured, as soon as the command is done.
func cliUsage(t0 time.Time, command string, err error) {
	cliMetrics.CommandRun(command, err)
	if config == nil {
		return
	}
	if logger, lerr := newCliOptionInputs(config, &autokitFlags).getLogger(); lerr == nil {
		logger.Debug("command done", zap.String("command", command), zap.Duration("took", time.Since(t0)), zap.Error(err))
	}
	flushMetrics()
}

func flushMetrics() {
	if config == nil || config.MetricsFile == "" {
		return
	}
	if err := cliMetrics.WriteTextfile(config.MetricsFile); err != nil {
		log.Printf("warning: could not write metrics: %v", err)
	}
}
