// Package sysops gathers host level automation: running commands, checking
// disk usage, looking up processes and reporting on the host.
package sysops

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/linuxautomation/autokit/pkg/sysops/status"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const gib = 1024 * 1024 * 1024

// System runs system level operations
type System struct {
	runner Runner
	probe  Probe
	logger *zap.Logger
	shell  string
	now    func() time.Time
	selfID int32
}

// Option for System
type Option func(*System)

// WithRunner replaces the command runner
func WithRunner(r Runner) Option {
	return func(s *System) {
		if r != nil {
			s.runner = r
		}
	}
}

// WithProbe replaces the host probe
func WithProbe(p Probe) Option {
	return func(s *System) {
		if p != nil {
			s.probe = p
		}
	}
}

// WithLogger sets the logger (defaults to a no-op logger)
func WithLogger(l *zap.Logger) Option {
	return func(s *System) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithShell sets the shell used by ExecuteShell
func WithShell(shell string) Option {
	return func(s *System) {
		if shell != "" {
			s.shell = shell
		}
	}
}

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(s *System) {
		if now != nil {
			s.now = now
		}
	}
}

// New System operations
func New(opts ...Option) *System {
	s := &System{
		runner: ExecRunner{},
		probe:  HostProbe{},
		logger: zap.NewNop(),
		shell:  DefaultShell,
		now:    time.Now,
		selfID: int32(os.Getpid()),
	}
	for _, apply := range opts {
		apply(s)
	}
	return s
}

// DiskUsage statistics for the filesystem holding Path
type DiskUsage struct {
	Path    string  `json:"path" yaml:"path"`
	Total   uint64  `json:"total" yaml:"total"`
	Used    uint64  `json:"used" yaml:"used"`
	Free    uint64  `json:"free" yaml:"free"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// TotalGB is the filesystem size in GiB
func (d DiskUsage) TotalGB() float64 { return float64(d.Total) / gib }

// UsedGB is the used space in GiB
func (d DiskUsage) UsedGB() float64 { return float64(d.Used) / gib }

// FreeGB is the available space in GiB
func (d DiskUsage) FreeGB() float64 { return float64(d.Free) / gib }

func (d DiskUsage) String() string {
	return fmt.Sprintf("%.1f%% used (%.1fGB/%.1fGB)", d.Percent, d.UsedGB(), d.TotalGB())
}

// DiskUsage reports the usage of the filesystem holding path
func (s *System) DiskUsage(ctx context.Context, path string) (DiskUsage, error) {
	if path == "" {
		path = "/"
	}
	s.logger.Info("checking disk usage", zap.String("path", path))

	st, err := s.probe.DiskUsage(ctx, path)
	if err != nil {
		s.logger.Error("failed to check disk usage", zap.String("path", path), zap.Error(err))
		return DiskUsage{Path: path}, status.ErrProbe.Wrapf("disk usage for %s: %v", path, err)
	}
	du := DiskUsage{
		Path:  path,
		Total: st.Total,
		Used:  st.Used,
		Free:  st.Free,
	}
	if du.Total > 0 {
		du.Percent = float64(du.Used) / float64(du.Total) * 100
	}
	s.logger.Info("disk usage", zap.String("path", path), zap.String("usage", du.String()))
	return du, nil
}

// Process is a running process
type Process struct {
	PID     int32  `json:"pid" yaml:"pid"`
	Name    string `json:"name" yaml:"name"`
	Cmdline string `json:"cmdline" yaml:"cmdline"`
	User    string `json:"user,omitempty" yaml:"user,omitempty"`
}

// ProcessInfo lists the processes matching a name
type ProcessInfo struct {
	Query     string    `json:"query" yaml:"query"`
	Found     bool      `json:"found" yaml:"found"`
	Processes []Process `json:"processes" yaml:"processes"`
}

// FindProcesses lists the running processes whose name or command line
// contains name. The calling process is never reported.
func (s *System) FindProcesses(ctx context.Context, name string) (ProcessInfo, error) {
	info := ProcessInfo{Query: name, Processes: []Process{}}
	if strings.TrimSpace(name) == "" {
		return info, status.ErrInvalidArgument.Wrapf("empty process name")
	}
	s.logger.Info("checking process", zap.String("name", name))

	all, err := s.probe.Processes(ctx)
	if err != nil {
		s.logger.Error("failed to list processes", zap.Error(err))
		return info, status.ErrProbe.Wrapf("listing processes: %v", err)
	}
	for _, p := range all {
		if p.PID == s.selfID {
			continue
		}
		if strings.Contains(p.Name, name) || strings.Contains(p.Cmdline, name) {
			info.Processes = append(info.Processes, p)
		}
	}
	info.Found = len(info.Processes) > 0
	s.logger.Info("process lookup complete", zap.String("name", name), zap.Int("instances", len(info.Processes)))
	return info, nil
}

// Host facts
type Host struct {
	Hostname        string        `json:"hostname" yaml:"hostname"`
	OS              string        `json:"os" yaml:"os"`
	Platform        string        `json:"platform" yaml:"platform"`
	PlatformVersion string        `json:"platformVersion" yaml:"platformVersion"`
	KernelVersion   string        `json:"kernelVersion" yaml:"kernelVersion"`
	Uptime          time.Duration `json:"uptime" yaml:"uptime"`
}

// HostInfo returns facts about the local host
func (s *System) HostInfo(ctx context.Context) (Host, error) {
	h, err := s.probe.Host(ctx)
	if err != nil {
		return Host{}, status.ErrProbe.Wrapf("host info: %v", err)
	}
	return h, nil
}

// Report is a snapshot of the host state
type Report struct {
	Timestamp time.Time  `json:"timestamp" yaml:"timestamp"`
	Disk      *DiskUsage `json:"diskUsage,omitempty" yaml:"diskUsage,omitempty"`
	Host      *Host      `json:"systemInfo,omitempty" yaml:"systemInfo,omitempty"`
	Errors    []string   `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// GenerateReport probes disk usage of diskPath and host facts concurrently.
//
// A failed probe is listed in Report.Errors, the other probes are still reported.
func (s *System) GenerateReport(ctx context.Context, diskPath string) Report {
	s.logger.Info("generating system report")
	report := Report{Timestamp: s.now()}

	var (
		mx  sync.Mutex
		grp errgroup.Group
	)
	record := func(err error) {
		mx.Lock()
		report.Errors = append(report.Errors, err.Error())
		mx.Unlock()
	}

	grp.Go(func() error {
		du, err := s.DiskUsage(ctx, diskPath)
		if err != nil {
			record(err)
			return nil
		}
		mx.Lock()
		report.Disk = &du
		mx.Unlock()
		return nil
	})
	grp.Go(func() error {
		h, err := s.HostInfo(ctx)
		if err != nil {
			record(err)
			return nil
		}
		mx.Lock()
		report.Host = &h
		mx.Unlock()
		return nil
	})
	_ = grp.Wait()

	s.logger.Info("system report generated", zap.Int("errors", len(report.Errors)))
	return report
}
