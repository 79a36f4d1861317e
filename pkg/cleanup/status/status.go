// Package status exports errors produced by the cleanup package.
package status

import (
	"github.com/linuxautomation/autokit/pkg/errors"
)

var (
	// ErrTargetNotFound indicates the cleanup target does not exist
	ErrTargetNotFound = errors.New("directory not found")

	// ErrNotDirectory indicates the cleanup target is not a directory
	ErrNotDirectory = errors.New("target is not a directory")

	// ErrLocked indicates another cleanup is already running on the same target
	ErrLocked = errors.New("cleanup already running for target")
)
