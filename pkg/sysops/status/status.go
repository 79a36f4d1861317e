// Package status exports errors produced by the sysops package.
package status

import (
	"github.com/linuxautomation/autokit/pkg/errors"
)

var (
	// ErrCommandFailed indicates a checked command exited with a non-zero code
	ErrCommandFailed = errors.New("command failed")

	// ErrCommandNotFound indicates the command binary could not be located
	ErrCommandNotFound = errors.New("command not found")

	// ErrInvalidArgument indicates a missing or malformed argument
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrProbe indicates a host probe (disk, process table, host facts) failed
	ErrProbe = errors.New("system probe failed")
)
