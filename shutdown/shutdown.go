// Package shutdown ends a dictation run cleanly: the first termination
// signal invokes a callback that cancels the event loop, so session
// logs get flushed and the capture device is released before exit.
package shutdown

import (
	"os"
	"os/signal"
)

// OnSignal invokes fn from its own goroutine when the process receives
// a termination signal. Later signals are ignored; fn runs once.
func OnSignal(fn func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals()...)
	go func() {
		<-ch
		fn()
	}()
}
