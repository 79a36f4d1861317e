package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

func sanitizePath(path string) (string, error) {
	return filepath.Abs(filepath.Clean(path))
}

// requirePath resolves path and exits with ENOENT when it does not exist
func requirePath(path string) (string, bool) {
	if path == "" {
		wrapFatalln("a path is required", nil)
		return "", false
	}
	p, err := sanitizePath(path)
	if err != nil {
		wrapFatalln(fmt.Sprintf("invalid path %q", path), err)
		return "", false
	}
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			wrapFatalWithCodef(int(unix.ENOENT), "path not found: %q", p)
			return "", false
		}
		wrapFatalln(fmt.Sprintf("couldn't stat %q", p), err)
		return "", false
	}
	return p, true
}
