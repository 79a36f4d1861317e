// Package fileops automates file housekeeping on a directory tree: sorting
// files by extension, expiring old files, pruning empty directories, fixing
// permissions and spotting large files.
//
// All operations run against an afero.Fs, so they can be exercised on an
// in-memory filesystem.
package fileops

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/linuxautomation/autokit/pkg/fileops/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const (
	// DefaultMaxAge is the age after which CleanupOldFiles expires a file
	DefaultMaxAge = 30 * 24 * time.Hour

	// DefaultLargeFileThreshold is the size above which FindLargeFiles reports a file
	DefaultLargeFileThreshold int64 = 100 * 1024 * 1024

	// NoExtensionDir receives files without an extension when organizing
	NoExtensionDir = "no_extension"
)

// Manager runs file management operations
type Manager struct {
	fs      afero.Fs
	logger  *zap.Logger
	now     func() time.Time
	dryRun  bool
	exclude []string
}

// Option for the file manager
type Option func(*Manager)

// WithLogger sets the logger (defaults to a no-op logger)
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock sets the time source used to compute file ages
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithDryRun reports what would change without touching the filesystem
func WithDryRun(enabled bool) Option {
	return func(m *Manager) {
		m.dryRun = enabled
	}
}

// WithExclude skips the paths matching any of the doublestar patterns, e.g.
// "*.keep" or "cache/**". Patterns are expected to be valid, see ValidatePatterns.
func WithExclude(patterns ...string) Option {
	return func(m *Manager) {
		m.exclude = append(m.exclude, patterns...)
	}
}

// New file manager operating on fs. A nil fs means the OS filesystem.
func New(fs afero.Fs, opts ...Option) *Manager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	m := &Manager{
		fs:     fs,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, apply := range opts {
		apply(m)
	}
	return m
}

// Fs returns the filesystem the manager operates on
func (m *Manager) Fs() afero.Fs {
	return m.fs
}

// DryRun tells if the manager only reports changes
func (m *Manager) DryRun() bool {
	return m.dryRun
}

func (m *Manager) requireDir(dir string) error {
	fi, err := m.fs.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			m.logger.Error("target directory does not exist", zap.String("path", dir))
			return status.ErrNotFound.Wrapf("%s", dir)
		}
		return err
	}
	if !fi.IsDir() {
		m.logger.Error("target is not a directory", zap.String("path", dir))
		return status.ErrNotDirectory.Wrapf("%s", dir)
	}
	return nil
}

// descendants lists every path below root (root excluded), in walk order.
// Entries that cannot be read are reported to onErr and skipped.
func (m *Manager) descendants(ctx context.Context, root string, onErr func(string, error)) ([]string, []os.FileInfo, error) {
	var (
		paths []string
		infos []os.FileInfo
	)
	err := afero.Walk(m.fs, root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			onErr(path, err)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Clean(path) == filepath.Clean(root) {
			return nil
		}
		if m.excluded(root, path) {
			m.logger.Debug("excluded", zap.String("path", path))
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		paths = append(paths, path)
		infos = append(infos, info)
		return nil
	})
	return paths, infos, err
}
