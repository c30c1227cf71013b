package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownContext derives a context from parent that is cancelled on the
// first SIGINT or SIGTERM. The returned stop function also cancels the
// context and unregisters the handler, so the daemon's own exit paths
// (stdin EOF, the exit command) share one cancellation point with signal
// delivery.
func ShutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
