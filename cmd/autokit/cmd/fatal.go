package cmd

import (
	"fmt"
	"log"
	"os"

	cleanupstatus "github.com/linuxautomation/autokit/pkg/cleanup/status"
	"github.com/linuxautomation/autokit/pkg/errors"
	filestatus "github.com/linuxautomation/autokit/pkg/fileops/status"
	"golang.org/x/sys/unix"
)

var (
	// globals used to patch over calls to os.Exit() during test

	logFatalln = log.Fatalln
	logFatalf  = log.Fatalf
	osExit     = os.Exit

	// infoLogger wraps informative messages to os.Stdout without cluttering expected output in tests.
	// To be used instead on fmt.Printf(os.Stdout, ...)
	infoLogger = log.New(os.Stdout, "", 0)
)

func wrapFatalln(msg string, err error) {
	if err == nil {
		logFatalln(msg)
	} else {
		logFatalf("%v", fmt.Errorf(msg+": %w", err))
	}
}

func wrapFatalWithCodef(code int, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	osExit(code)
}

// fatalOnError exits with ENOENT when err is about a missing path, with status 1 otherwise
func fatalOnError(msg string, err error) {
	if errors.Is(err, filestatus.ErrNotFound) || errors.Is(err, cleanupstatus.ErrTargetNotFound) {
		wrapFatalWithCodef(int(unix.ENOENT), "%s: %v", msg, err)
		return
	}
	wrapFatalln(msg, err)
}
