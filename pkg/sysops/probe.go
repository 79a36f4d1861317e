package sysops

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/process"
)

// Probe reads host state
type Probe interface {
	DiskUsage(ctx context.Context, path string) (*disk.UsageStat, error)
	Processes(ctx context.Context) ([]Process, error)
	Host(ctx context.Context) (Host, error)
}

// HostProbe reads the state of the local host with gopsutil
type HostProbe struct{}

// DiskUsage of the filesystem holding path
func (HostProbe) DiskUsage(ctx context.Context, path string) (*disk.UsageStat, error) {
	return disk.UsageWithContext(ctx, path)
}

// Processes snapshot of the process table.
//
// Processes exiting while the table is read are skipped.
func (HostProbe) Processes(ctx context.Context) ([]Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		cmdline, _ := p.CmdlineWithContext(ctx)
		user, _ := p.UsernameWithContext(ctx)
		out = append(out, Process{
			PID:     p.Pid,
			Name:    name,
			Cmdline: cmdline,
			User:    user,
		})
	}
	return out, nil
}

// Host facts
func (HostProbe) Host(ctx context.Context) (Host, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return Host{}, err
	}
	return Host{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelVersion:   info.KernelVersion,
		Uptime:          time.Duration(info.Uptime) * time.Second,
	}, nil
}
