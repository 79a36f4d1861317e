package fileops

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/linuxautomation/autokit/pkg/fileops/status"
)

// ValidatePatterns checks exclusion patterns before they are handed to WithExclude.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if p == "" || !doublestar.ValidatePattern(p) {
			return status.ErrInvalidPattern.Wrapf("%q", p)
		}
	}
	return nil
}

// excluded tells if path, found below root, matches an exclusion pattern.
//
// A pattern without a slash matches the base name at any depth, like in a
// .gitignore file. Other patterns match the slash separated path relative to root.
func (m *Manager) excluded(root, path string) bool {
	if len(m.exclude) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(path)

	for _, p := range m.exclude {
		name := rel
		if !strings.Contains(p, "/") {
			name = base
		}
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}
