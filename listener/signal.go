// File: listener/signal.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process-wide SIGINT/SIGPIPE handling, installed only when
// Options.InstallSignalHandler is set, per spec.md §4.8/§5 ("SIGINT
// optional global handler coordinates Listener shutdown; SIGPIPE is
// ignored process-wide if the option is set").

package listener

import (
	"os"
	"os/signal"
	"syscall"
)

// installSignalHandler ignores SIGPIPE and calls onInterrupt once on the
// first SIGINT, returning a function that stops listening for signals.
func installSignalHandler(onInterrupt func()) func() {
	signal.Ignore(syscall.SIGPIPE)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	done := make(chan struct{})

	go func() {
		select {
		case <-sigCh:
			onInterrupt()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
