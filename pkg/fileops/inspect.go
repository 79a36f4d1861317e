package fileops

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/linuxautomation/autokit/pkg/fileops/status"
	"go.uber.org/zap"
)

// ChangePermissions applies mode to path. With recursive on a directory, the
// mode is applied to every path below it but not to the directory itself.
//
// Paths are changed deepest first, so that restricting a directory does not
// prevent reaching its content.
func (m *Manager) ChangePermissions(ctx context.Context, path string, mode os.FileMode, recursive bool) (PermissionsResult, error) {
	res := PermissionsResult{Mode: fmt.Sprintf("%#o", mode.Perm())}
	m.logger.Info("changing permissions", zap.String("path", path), zap.String("mode", res.Mode), zap.Bool("recursive", recursive))

	fi, err := m.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			m.logger.Error("target does not exist", zap.String("path", path))
			return res, status.ErrNotFound.Wrapf("%s", path)
		}
		return res, err
	}

	if !recursive || !fi.IsDir() {
		if err := m.fs.Chmod(path, mode); err != nil {
			res.fail(fmt.Errorf("chmod %q: %w", path, err))
			m.logger.Error("permission change failed", zap.String("path", path), zap.Error(err))
			return res, nil
		}
		res.Changed++
		return res, nil
	}

	paths, _, err := m.descendants(ctx, path, func(p string, err error) {
		res.fail(fmt.Errorf("walking %q: %w", p, err))
	})
	if err != nil {
		return res, err
	}
	for i := len(paths) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := m.fs.Chmod(paths[i], mode); err != nil {
			res.fail(fmt.Errorf("chmod %q: %w", paths[i], err))
			m.logger.Warn("could not change", zap.String("path", paths[i]), zap.Error(err))
			continue
		}
		res.Changed++
		m.logger.Debug("changed permissions", zap.String("path", paths[i]))
	}
	return res, nil
}

// FindLargeFiles lists the regular files below dir strictly larger than
// threshold bytes, largest first.
func (m *Manager) FindLargeFiles(ctx context.Context, dir string, threshold int64) ([]LargeFile, error) {
	if threshold < 0 {
		return nil, status.ErrInvalidThreshold.Wrapf("negative size %d", threshold)
	}
	m.logger.Info("searching for large files", zap.String("path", dir), zap.Int64("threshold", threshold))
	if err := m.requireDir(dir); err != nil {
		return nil, err
	}

	paths, infos, err := m.descendants(ctx, dir, func(p string, err error) {
		m.logger.Warn("could not inspect", zap.String("path", p), zap.Error(err))
	})
	if err != nil {
		return nil, err
	}

	large := make([]LargeFile, 0)
	for i, p := range paths {
		if !infos[i].Mode().IsRegular() || infos[i].Size() <= threshold {
			continue
		}
		large = append(large, LargeFile{Path: p, Size: infos[i].Size()})
		m.logger.Info("found large file", zap.String("path", p), zap.Int64("size", infos[i].Size()))
	}
	sort.Slice(large, func(i, j int) bool {
		if large[i].Size != large[j].Size {
			return large[i].Size > large[j].Size
		}
		return large[i].Path < large[j].Path
	})
	return large, nil
}
