package fileops

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/linuxautomation/autokit/pkg/fileops/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ExtensionDir returns the sub-directory a file is sorted into: its extension
// without the leading dot, or NoExtensionDir.
//
// Dot files such as ".bashrc" and names ending with a dot have no extension.
func ExtensionDir(name string) string {
	base := strings.TrimLeft(filepath.Base(name), ".")
	ext := filepath.Ext(base)
	if ext == "" || ext == "." {
		return NoExtensionDir
	}
	return strings.TrimPrefix(ext, ".")
}

// OrganizeByExtension moves the regular files found directly under dir into
// sub-directories named after their extension.
//
// Failing to move a file is counted and does not stop the run.
// An existing file at the destination is never overwritten.
func (m *Manager) OrganizeByExtension(ctx context.Context, dir string) (OrganizeResult, error) {
	m.logger.Info("starting file organization", zap.String("path", dir))
	res := OrganizeResult{DryRun: m.dryRun}

	if err := m.requireDir(dir); err != nil {
		return res, err
	}

	entries, err := afero.ReadDir(m.fs, dir)
	if err != nil {
		m.logger.Error("file organization failed", zap.String("path", dir), zap.Error(err))
		res.fail(err)
		return res, fmt.Errorf("reading %q: %w", dir, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if !entry.Mode().IsRegular() || m.excluded(dir, filepath.Join(dir, entry.Name())) {
			continue
		}
		if err := m.organizeOne(dir, entry.Name(), &res); err != nil {
			res.fail(err)
			m.logger.Error("failed to organize", zap.String("file", entry.Name()), zap.Error(err))
		}
	}

	m.logger.Info("file organization complete",
		zap.String("path", dir),
		zap.Int("organized", res.Organized),
		zap.Int("errors", res.Errors))
	return res, nil
}

// OrganizeFile sorts a single file living directly under dir.
// Used by the watcher when new files show up.
func (m *Manager) OrganizeFile(dir, name string) (OrganizeResult, error) {
	res := OrganizeResult{DryRun: m.dryRun}
	fi, err := m.fs.Stat(filepath.Join(dir, name))
	if err != nil {
		return res, err
	}
	if !fi.Mode().IsRegular() || m.excluded(dir, filepath.Join(dir, name)) {
		return res, nil
	}
	if err := m.organizeOne(dir, name, &res); err != nil {
		res.fail(err)
		return res, err
	}
	return res, nil
}

func (m *Manager) organizeOne(dir, name string, res *OrganizeResult) error {
	extDir := ExtensionDir(name)
	target := filepath.Join(dir, extDir)
	src := filepath.Join(dir, name)
	dst := filepath.Join(target, name)

	if !m.dryRun {
		if err := m.fs.MkdirAll(target, 0755); err != nil {
			return fmt.Errorf("creating %q: %w", target, err)
		}
		exists, err := afero.Exists(m.fs, dst)
		if err != nil {
			return err
		}
		if exists {
			return status.ErrDestinationExists.Wrapf("%s", dst)
		}
		if err := m.fs.Rename(src, dst); err != nil {
			return fmt.Errorf("moving %q: %w", name, err)
		}
	}

	res.Organized++
	res.Details = append(res.Details, fmt.Sprintf("Moved %s to %s/", name, extDir))
	m.logger.Info("organized", zap.String("file", name), zap.String("to", extDir), zap.Bool("dryRun", m.dryRun))
	return nil
}
