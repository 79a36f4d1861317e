// Package metrics records automation activity as Prometheus metrics and
// writes them out for the node exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name
const DefaultNamespace = "autokit"

// Recorder holds the metrics of one automation process
type Recorder struct {
	registry *prometheus.Registry

	filesDeleted   prometheus.Counter
	freedBytes     prometheus.Counter
	dirsRemoved    prometheus.Counter
	filesOrganized prometheus.Counter
	errors         *prometheus.CounterVec
	lastRun        prometheus.Gauge
	lastSuccess    prometheus.Gauge
	diskUsed       *prometheus.GaugeVec
	runDuration    prometheus.Histogram
	commands       *prometheus.CounterVec
}

// New registers a fresh set of metrics on a private registry
func New(opts ...Option) *Recorder {
	s := defaultSettings()
	for _, apply := range opts {
		apply(s)
	}
	labels := prometheus.Labels(s.constLabels)

	r := &Recorder{
		registry: prometheus.NewRegistry(),
		filesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: s.namespace, Name: "files_deleted_total", ConstLabels: labels,
			Help: "Number of expired files deleted.",
		}),
		freedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: s.namespace, Name: "freed_bytes_total", ConstLabels: labels,
			Help: "Bytes released by deleting expired files.",
		}),
		dirsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: s.namespace, Name: "dirs_removed_total", ConstLabels: labels,
			Help: "Number of empty directories removed.",
		}),
		filesOrganized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: s.namespace, Name: "files_organized_total", ConstLabels: labels,
			Help: "Number of files moved into extension directories.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: s.namespace, Name: "operation_errors_total", ConstLabels: labels,
			Help: "Number of per-item failures, by operation.",
		}, []string{"operation"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: s.namespace, Name: "last_run_timestamp_seconds", ConstLabels: labels,
			Help: "Unix time of the end of the last run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: s.namespace, Name: "last_run_success", ConstLabels: labels,
			Help: "1 if the last run succeeded, 0 otherwise.",
		}),
		diskUsed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: s.namespace, Name: "disk_used_ratio", ConstLabels: labels,
			Help: "Used fraction of the filesystem holding path.",
		}, []string{"path"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: s.namespace, Name: "run_duration_seconds", ConstLabels: labels,
			Help:    "Duration of automation runs.",
			Buckets: s.buckets,
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: s.namespace, Name: "commands_total", ConstLabels: labels,
			Help: "Number of CLI commands run, by command and result.",
		}, []string{"command", "result"}),
	}

	r.registry.MustRegister(
		r.filesDeleted,
		r.freedBytes,
		r.dirsRemoved,
		r.filesOrganized,
		r.errors,
		r.lastRun,
		r.lastSuccess,
		r.diskUsed,
		r.runDuration,
		r.commands,
	)
	return r
}

// Registry exposes the underlying registry, e.g. to serve it over HTTP
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// FilesDeleted counts expired files deleted and the bytes released
func (r *Recorder) FilesDeleted(n int, bytes int64) {
	r.filesDeleted.Add(float64(n))
	r.freedBytes.Add(float64(bytes))
}

// DirsRemoved counts empty directories removed
func (r *Recorder) DirsRemoved(n int) {
	r.dirsRemoved.Add(float64(n))
}

// FilesOrganized counts files sorted by extension
func (r *Recorder) FilesOrganized(n int) {
	r.filesOrganized.Add(float64(n))
}

// Errors counts per-item failures for an operation
func (r *Recorder) Errors(operation string, n int) {
	if n <= 0 {
		return
	}
	r.errors.WithLabelValues(operation).Add(float64(n))
}

// DiskUsed records the used percentage of the filesystem holding path
func (r *Recorder) DiskUsed(path string, percent float64) {
	r.diskUsed.WithLabelValues(path).Set(percent / 100)
}

// RunFinished records the outcome of a run started at t0 and ended at end
func (r *Recorder) RunFinished(t0, end time.Time, success bool) {
	r.runDuration.Observe(end.Sub(t0).Seconds())
	r.lastRun.Set(float64(end.Unix()))
	if success {
		r.lastSuccess.Set(1)
	} else {
		r.lastSuccess.Set(0)
	}
}

// CommandRun counts a CLI command, labelled "ok" or "error"
func (r *Recorder) CommandRun(command string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.commands.WithLabelValues(command, result).Inc()
}

// WriteTextfile writes all metrics to path in the text exposition format.
//
// The file is replaced atomically, as expected by the textfile collector.
// An empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %q: %w", path, err)
	}
	return nil
}
