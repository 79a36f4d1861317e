// Package cleanup implements the daily cleanup workflow: expire old files,
// prune empty directories, optionally sort what is left by extension, then
// check the disk usage of the target.
//
// Failures on individual files are counted in the result and do not fail the
// run. Only workflow level problems do: a missing target, a target already
// being cleaned up, or an interrupted run.
package cleanup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/linuxautomation/autokit/pkg/cleanup/status"
	"github.com/linuxautomation/autokit/pkg/errors"
	"github.com/linuxautomation/autokit/pkg/fileops"
	"github.com/linuxautomation/autokit/pkg/metrics"
	"github.com/linuxautomation/autokit/pkg/sysops"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

// DefaultTarget is cleaned up when no target is given
const DefaultTarget = "/tmp"

// Options for a cleanup run
type Options struct {
	// Target directory to clean up
	Target string `json:"target" yaml:"target" mapstructure:"target"`

	// MaxAge after which files are deleted (defaults to 30 days)
	MaxAge time.Duration `json:"maxAge" yaml:"maxAge" mapstructure:"max_age"`

	// Organize remaining top-level files by extension
	Organize bool `json:"organize" yaml:"organize" mapstructure:"organize"`

	// LockDir holds the lock files preventing concurrent runs (defaults to os.TempDir())
	LockDir string `json:"lockDir" yaml:"lockDir" mapstructure:"lock_dir"`

	// LockWait is how long to wait for a cleanup of the same target to finish.
	// Zero fails at once with status.ErrLocked.
	LockWait time.Duration `json:"lockWait,omitempty" yaml:"lockWait,omitempty" mapstructure:"lock_wait"`

	// DiskPath is the path whose filesystem usage is reported (defaults to Target)
	DiskPath string `json:"diskPath,omitempty" yaml:"diskPath,omitempty" mapstructure:"disk_path"`
}

func (o Options) withDefaults() Options {
	if o.Target == "" {
		o.Target = DefaultTarget
	}
	if o.MaxAge == 0 {
		o.MaxAge = fileops.DefaultMaxAge
	}
	if o.LockDir == "" {
		o.LockDir = os.TempDir()
	}
	if o.DiskPath == "" {
		o.DiskPath = o.Target
	}
	return o
}

// Operations holds the result of each step that ran
type Operations struct {
	OldFiles  *fileops.CleanupFilesResult `json:"oldFileCleanup,omitempty" yaml:"oldFileCleanup,omitempty"`
	EmptyDirs *fileops.CleanupDirsResult  `json:"emptyDirCleanup,omitempty" yaml:"emptyDirCleanup,omitempty"`
	Organize  *fileops.OrganizeResult     `json:"organize,omitempty" yaml:"organize,omitempty"`
	DiskUsage *sysops.DiskUsage           `json:"diskUsage,omitempty" yaml:"diskUsage,omitempty"`
}

// Result of a cleanup run
type Result struct {
	Success    bool       `json:"success" yaml:"success"`
	RunID      string     `json:"runId" yaml:"runId"`
	Target     string     `json:"target" yaml:"target"`
	DryRun     bool       `json:"dryRun,omitempty" yaml:"dryRun,omitempty"`
	StartedAt  time.Time  `json:"startedAt" yaml:"startedAt"`
	FinishedAt time.Time  `json:"finishedAt" yaml:"finishedAt"`
	Operations Operations `json:"operations" yaml:"operations"`
	Error      string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// Runner runs cleanups
type Runner struct {
	files    *fileops.Manager
	sys      *sysops.System
	recorder *metrics.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// Option for the cleanup runner
type Option func(*Runner)

// WithLogger sets the logger (defaults to a no-op logger)
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records each run on rec
func WithMetrics(rec *metrics.Recorder) Option {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// New cleanup runner
func New(files *fileops.Manager, sys *sysops.System, opts ...Option) *Runner {
	r := &Runner{
		files:  files,
		sys:    sys,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, apply := range opts {
		apply(r)
	}
	return r
}

// Run a cleanup.
//
// The returned Result is always populated, also on error.
func (r *Runner) Run(ctx context.Context, opts Options) (res Result, err error) {
	opts = opts.withDefaults()
	res = Result{
		RunID:     ksuid.New().String(),
		Target:    opts.Target,
		DryRun:    r.files.DryRun(),
		StartedAt: r.now(),
	}
	logger := r.logger.With(zap.String("run", res.RunID), zap.String("target", opts.Target))
	logger.Info("daily cleanup started", zap.Duration("maxAge", opts.MaxAge), zap.Bool("dryRun", res.DryRun))

	defer func() {
		res.FinishedAt = r.now()
		if err != nil {
			res.Success = false
			if res.Error == "" {
				res.Error = err.Error()
			}
			logger.Error("cleanup operation failed", zap.Error(err))
		} else {
			logger.Info("daily cleanup completed successfully", zap.Duration("took", res.FinishedAt.Sub(res.StartedAt)))
		}
		r.record(res)
	}()

	if err = r.checkTarget(opts.Target); err != nil {
		res.Error = errorMessage(err)
		return res, err
	}

	unlock, err := acquire(ctx, opts.LockDir, opts.Target, opts.LockWait)
	if err != nil {
		return res, err
	}
	defer unlock()

	logger.Info("starting old file cleanup")
	old, err := r.files.CleanupOldFiles(ctx, opts.Target, opts.MaxAge)
	res.Operations.OldFiles = &old
	if err != nil {
		return res, fmt.Errorf("old file cleanup: %w", err)
	}

	logger.Info("starting empty directory cleanup")
	dirs, err := r.files.CleanupEmptyDirs(ctx, opts.Target, true)
	res.Operations.EmptyDirs = &dirs
	if err != nil {
		return res, fmt.Errorf("empty directory cleanup: %w", err)
	}

	if opts.Organize {
		logger.Info("organizing remaining files")
		org, err := r.files.OrganizeByExtension(ctx, opts.Target)
		res.Operations.Organize = &org
		if err != nil {
			return res, fmt.Errorf("organize: %w", err)
		}
	}

	logger.Info("checking system health")
	du, duErr := r.sys.DiskUsage(ctx, opts.DiskPath)
	if duErr != nil {
		// reported without failing the run
		logger.Warn("disk usage unavailable", zap.Error(duErr))
	} else {
		res.Operations.DiskUsage = &du
	}

	if err = ctx.Err(); err != nil {
		return res, err
	}
	res.Success = true
	return res, nil
}

func (r *Runner) checkTarget(target string) error {
	fi, err := r.files.Fs().Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return status.ErrTargetNotFound.Wrapf("%s", target)
		}
		return err
	}
	if !fi.IsDir() {
		return status.ErrNotDirectory.Wrapf("%s", target)
	}
	return nil
}

func (r *Runner) record(res Result) {
	if r.recorder == nil {
		return
	}
	ops := res.Operations
	if ops.OldFiles != nil {
		r.recorder.FilesDeleted(ops.OldFiles.Deleted, ops.OldFiles.FreedBytes)
		r.recorder.Errors("old_files", ops.OldFiles.Errors)
	}
	if ops.EmptyDirs != nil {
		r.recorder.DirsRemoved(ops.EmptyDirs.Removed)
		r.recorder.Errors("empty_dirs", ops.EmptyDirs.Errors)
	}
	if ops.Organize != nil {
		r.recorder.FilesOrganized(ops.Organize.Organized)
		r.recorder.Errors("organize", ops.Organize.Errors)
	}
	if ops.DiskUsage != nil {
		r.recorder.DiskUsed(ops.DiskUsage.Path, ops.DiskUsage.Percent)
	}
	r.recorder.RunFinished(res.StartedAt, res.FinishedAt, res.Success)
}

// errorMessage keeps the short sentinel text, e.g. "directory not found"
func errorMessage(err error) string {
	switch {
	case errors.Is(err, status.ErrTargetNotFound):
		return status.ErrTargetNotFound.Error()
	case errors.Is(err, status.ErrNotDirectory):
		return status.ErrNotDirectory.Error()
	default:
		return err.Error()
	}
}

func absTarget(target string) string {
	abs, err := filepath.Abs(target)
	if err != nil {
		return filepath.Clean(target)
	}
	return abs
}
