package cmd

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
}
