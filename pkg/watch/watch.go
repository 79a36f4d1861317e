// Package watch organizes files by extension as they arrive in a directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/linuxautomation/autokit/pkg/fileops"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a file must stay quiet before it is moved
const DefaultDebounce = 500 * time.Millisecond

// Watcher moves new regular files found directly under a directory into
// their extension sub-directory. Sub-directories are not watched.
type Watcher struct {
	dir      string
	files    *fileops.Manager
	logger   *zap.Logger
	debounce time.Duration
	now      func() time.Time
	onMove   func(fileops.OrganizeResult)
	ready    chan struct{}
	once     sync.Once

	pendingMu sync.Mutex
	pending   map[string]time.Time

	organized atomic.Int64
	failed    atomic.Int64
}

// Option for the watcher
type Option func(*Watcher)

// WithLogger sets the logger (defaults to a no-op logger)
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets the quiet period before a file is moved
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// OnOrganized is called after each file handled, successfully or not
func OnOrganized(fn func(fileops.OrganizeResult)) Option {
	return func(w *Watcher) {
		w.onMove = fn
	}
}

// New watcher for dir. Files are moved with files, which must operate on the OS filesystem.
func New(dir string, files *fileops.Manager, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      filepath.Clean(dir),
		files:    files,
		logger:   zap.NewNop(),
		debounce: DefaultDebounce,
		now:      time.Now,
		pending:  make(map[string]time.Time),
		ready:    make(chan struct{}),
	}
	for _, apply := range opts {
		apply(w)
	}
	return w
}

// Organized counts the files moved so far
func (w *Watcher) Organized() int64 { return w.organized.Load() }

// Failed counts the files which could not be moved
func (w *Watcher) Failed() int64 { return w.failed.Load() }

// Ready is closed once the directory is being watched
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Run watches the directory until ctx is cancelled. A stopped watcher may be
// run again; counters carry over.
func (w *Watcher) Run(ctx context.Context) error {
	fi, err := os.Stat(w.dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s: not a directory", w.dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	w.once.Do(func() { close(w.ready) })
	w.logger.Info("watching directory", zap.String("path", w.dir), zap.Duration("debounce", w.debounce))

	tick := w.debounce / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopped watching directory",
				zap.String("path", w.dir),
				zap.Int64("organized", w.Organized()),
				zap.Int64("errors", w.Failed()))
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Dir(event.Name) != w.dir {
		return
	}

	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		delete(w.pending, event.Name)
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		w.pending[event.Name] = w.now()
		w.logger.Debug("file change detected", zap.String("path", event.Name), zap.String("op", event.Op.String()))
	}
}

// flush moves the files which stayed quiet for the debounce period
func (w *Watcher) flush() {
	cutoff := w.now().Add(-w.debounce)
	var ready []string

	w.pendingMu.Lock()
	for path, seen := range w.pending {
		if !seen.After(cutoff) {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.pendingMu.Unlock()

	for _, path := range ready {
		fi, err := os.Lstat(path)
		if err != nil || !fi.Mode().IsRegular() {
			// gone, or a directory such as an extension dir we just created
			continue
		}
		res, err := w.files.OrganizeFile(w.dir, filepath.Base(path))
		if err != nil {
			w.failed.Add(1)
			w.logger.Warn("could not organize", zap.String("path", path), zap.Error(err))
		} else {
			w.organized.Add(int64(res.Organized))
		}
		if w.onMove != nil {
			w.onMove(res)
		}
	}
}
