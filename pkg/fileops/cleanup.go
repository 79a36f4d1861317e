package fileops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/linuxautomation/autokit/pkg/fileops/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// CleanupOldFiles deletes the regular files below dir (recursively) whose
// modification time is older than olderThan.
//
// Symbolic links are never followed nor removed.
func (m *Manager) CleanupOldFiles(ctx context.Context, dir string, olderThan time.Duration) (CleanupFilesResult, error) {
	res := CleanupFilesResult{DryRun: m.dryRun}
	if olderThan < 0 {
		return res, status.ErrInvalidThreshold.Wrapf("negative age %v", olderThan)
	}
	cutoff := m.now().Add(-olderThan)
	m.logger.Info("cleaning old files",
		zap.String("path", dir),
		zap.Duration("olderThan", olderThan),
		zap.Time("cutoff", cutoff))

	if err := m.requireDir(dir); err != nil {
		return res, err
	}

	paths, infos, err := m.descendants(ctx, dir, func(path string, err error) {
		res.fail(fmt.Errorf("walking %q: %w", path, err))
		m.logger.Warn("could not inspect", zap.String("path", path), zap.Error(err))
	})
	if err != nil {
		return res, err
	}

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		info := infos[i]
		if !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		if !m.dryRun {
			if err := m.fs.Remove(path); err != nil {
				res.fail(fmt.Errorf("deleting %q: %w", path, err))
				m.logger.Warn("could not delete", zap.String("path", path), zap.Error(err))
				continue
			}
		}
		res.Deleted++
		res.FreedBytes += info.Size()
		res.Details = append(res.Details, "Deleted "+info.Name())
		m.logger.Info("deleted old file", zap.String("path", path), zap.Bool("dryRun", m.dryRun))
	}

	m.logger.Info("old file cleanup complete",
		zap.Int("deleted", res.Deleted),
		zap.Int("errors", res.Errors))
	return res, nil
}

// CleanupEmptyDirs removes the empty directories below dir, deepest first, so
// that a parent left empty by the removal of its children goes in the same pass.
//
// dir itself is never removed. Without recursive, only the immediate
// sub-directories of dir are considered.
func (m *Manager) CleanupEmptyDirs(ctx context.Context, dir string, recursive bool) (CleanupDirsResult, error) {
	m.logger.Info("cleaning empty directories", zap.String("path", dir), zap.Bool("recursive", recursive))
	res := CleanupDirsResult{DryRun: m.dryRun}

	if err := m.requireDir(dir); err != nil {
		return res, err
	}

	dirs, err := m.subDirs(ctx, dir, recursive, &res)
	if err != nil {
		return res, err
	}

	// deepest first
	sort.SliceStable(dirs, func(i, j int) bool {
		di, dj := depth(dirs[i]), depth(dirs[j])
		if di != dj {
			return di > dj
		}
		return dirs[i] > dirs[j]
	})

	removed := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		empty, err := m.isEmpty(d, removed)
		if err != nil {
			res.fail(err)
			m.logger.Warn("could not inspect", zap.String("path", d), zap.Error(err))
			continue
		}
		if !empty {
			continue
		}
		if !m.dryRun {
			if err := m.fs.Remove(d); err != nil {
				res.fail(fmt.Errorf("removing %q: %w", d, err))
				m.logger.Warn("could not remove", zap.String("path", d), zap.Error(err))
				continue
			}
		}
		removed[filepath.Clean(d)] = true
		res.Removed++
		res.Details = append(res.Details, "Removed "+d)
		m.logger.Info("removed empty directory", zap.String("path", d), zap.Bool("dryRun", m.dryRun))
	}

	m.logger.Info("empty directory cleanup complete", zap.Int("removed", res.Removed), zap.Int("errors", res.Errors))
	return res, nil
}

func (m *Manager) subDirs(ctx context.Context, dir string, recursive bool, res *CleanupDirsResult) ([]string, error) {
	if !recursive {
		entries, err := afero.ReadDir(m.fs, dir)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", dir, err)
		}
		dirs := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() && !m.excluded(dir, filepath.Join(dir, e.Name())) {
				dirs = append(dirs, filepath.Join(dir, e.Name()))
			}
		}
		return dirs, nil
	}

	paths, infos, err := m.descendants(ctx, dir, func(path string, err error) {
		res.fail(fmt.Errorf("walking %q: %w", path, err))
	})
	if err != nil {
		return nil, err
	}
	dirs := make([]string, 0, len(paths))
	for i, p := range paths {
		if infos[i].IsDir() {
			dirs = append(dirs, p)
		}
	}
	return dirs, nil
}

// isEmpty tells if d holds nothing but directories already removed in this pass.
// In dry-run mode those directories are still on disk.
func (m *Manager) isEmpty(d string, removed map[string]bool) (bool, error) {
	entries, err := afero.ReadDir(m.fs, d)
	if err != nil {
		return false, fmt.Errorf("reading %q: %w", d, err)
	}
	for _, e := range entries {
		if !removed[filepath.Join(filepath.Clean(d), e.Name())] {
			return false, nil
		}
	}
	return true, nil
}

func depth(p string) int {
	return strings.Count(filepath.Clean(p), string(os.PathSeparator))
}
