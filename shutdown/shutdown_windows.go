//go:build windows

package shutdown

import "os"

// SIGTERM is not deliverable on Windows; Ctrl+C is the only trigger.
func signals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
