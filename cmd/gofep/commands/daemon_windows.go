//go:build windows

package commands

import "fmt"

// startDaemon is not supported on Windows.
// Run the processor in the foreground or under a service manager.
func startDaemon() error {
	return fmt.Errorf("daemon mode is not supported on Windows, run 'gofep start' without --daemon")
}
