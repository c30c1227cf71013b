/*
Package cli provides shared helpers for the datacap command: shutdown
signal wiring and the error types its subcommands return.

Shutdown:

	ctx, stop := cli.ShutdownContext(context.Background())
	defer stop()
	// ctx is cancelled on SIGINT or SIGTERM; stop() cancels it from
	// the daemon's own exit paths.
*/
package cli
