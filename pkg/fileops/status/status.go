// Package status exports errors produced by the fileops package.
package status

import (
	"github.com/linuxautomation/autokit/pkg/errors"
)

var (
	// ErrNotFound indicates the target path does not exist
	ErrNotFound = errors.New("path not found")

	// ErrNotDirectory indicates a directory was expected
	ErrNotDirectory = errors.New("not a directory")

	// ErrDestinationExists indicates a move would overwrite an existing file
	ErrDestinationExists = errors.New("destination already exists")

	// ErrInvalidThreshold indicates a negative size or age threshold
	ErrInvalidThreshold = errors.New("invalid threshold")

	// ErrInvalidPattern indicates a malformed exclusion pattern
	ErrInvalidPattern = errors.New("invalid exclusion pattern")
)
