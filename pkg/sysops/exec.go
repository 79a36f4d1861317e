package sysops

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/linuxautomation/autokit/pkg/sysops/status"
	"go.uber.org/zap"
)

const (
	// ExitNotFound is reported when the command binary does not exist
	ExitNotFound = 127

	// ExitUnknown is reported when the command did not run to completion
	ExitUnknown = -1

	// DefaultShell runs commands passed as a single string
	DefaultShell = "/bin/sh"

	// waitDelay bounds how long output is drained once a cancelled command is killed
	waitDelay = 2 * time.Second
)

// Runner abstracts command execution on the host.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, exitCode int, err error)
}

// ExecRunner executes commands on the local host.
type ExecRunner struct{}

// Run a command with os/exec, capturing its output.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), stderr.Bytes(), 0, nil
	}
	if ctx.Err() != nil {
		return stdout.Bytes(), stderr.Bytes(), ExitUnknown, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), stderr.Bytes(), exitErr.ExitCode(), err
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) || errors.Is(err, fs.ErrNotExist) {
		return stdout.Bytes(), stderr.Bytes(), ExitNotFound, status.ErrCommandNotFound.Wrap(err)
	}
	return stdout.Bytes(), stderr.Bytes(), ExitUnknown, err
}

// CommandResult describes a command execution
type CommandResult struct {
	Command    string        `json:"command" yaml:"command"`
	Success    bool          `json:"success" yaml:"success"`
	Output     string        `json:"output" yaml:"output"`
	Error      string        `json:"error" yaml:"error"`
	ReturnCode int           `json:"returnCode" yaml:"returnCode"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// ExecuteCommand runs name with args.
//
// With check, a non-zero exit code makes the execution unsuccessful and
// returns an error matching status.ErrCommandFailed. Without check, the exit
// code is reported but the execution still counts as successful.
//
// A command that cannot be started is always unsuccessful.
func (s *System) ExecuteCommand(ctx context.Context, check bool, name string, args ...string) (CommandResult, error) {
	res := CommandResult{
		Command:    strings.TrimSpace(name + " " + strings.Join(args, " ")),
		ReturnCode: ExitUnknown,
	}
	if strings.TrimSpace(name) == "" {
		return res, status.ErrInvalidArgument.Wrapf("empty command")
	}
	s.logger.Info("executing command", zap.String("command", res.Command))

	t0 := s.now()
	stdout, stderr, code, err := s.runner.Run(ctx, name, args...)
	res.Duration = s.now().Sub(t0)
	res.Output = string(stdout)
	res.Error = string(stderr)
	res.ReturnCode = code

	switch {
	case err == nil:
		res.Success = true
		s.logger.Info("command executed successfully", zap.String("command", res.Command))
		return res, nil

	case code > 0 && !isNotFound(err):
		// the command ran and exited with a non-zero status
		if res.Error == "" {
			res.Error = err.Error()
		}
		if !check {
			res.Success = true
			s.logger.Info("command exited with non-zero code",
				zap.String("command", res.Command),
				zap.Int("returnCode", code))
			return res, nil
		}
		s.logger.Error("command failed",
			zap.String("command", res.Command),
			zap.Int("returnCode", code),
			zap.String("error", res.Error))
		return res, status.ErrCommandFailed.Wrapf("%q exited with code %d", res.Command, code)

	default:
		if res.Error == "" {
			res.Error = err.Error()
		}
		s.logger.Error("command execution error", zap.String("command", res.Command), zap.Error(err))
		return res, err
	}
}

// ExecuteShell runs command through the system shell, like "sh -c command".
func (s *System) ExecuteShell(ctx context.Context, command string, check bool) (CommandResult, error) {
	if strings.TrimSpace(command) == "" {
		return CommandResult{ReturnCode: ExitUnknown}, status.ErrInvalidArgument.Wrapf("empty command")
	}
	res, err := s.ExecuteCommand(ctx, check, s.shell, "-c", command)
	res.Command = command
	return res, err
}

func isNotFound(err error) bool {
	return errors.Is(err, status.ErrCommandNotFound)
}
