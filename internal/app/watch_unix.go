//go:build !windows

package app

import (
	"fmt"
	"os"
	"syscall"
	"time"
)

// shutdownSignals are the OS signals that trigger graceful shutdown.
var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// stopWait bounds how long stopDaemon waits for the daemon to exit.
const stopWait = 5 * time.Second

// stopDaemon sends SIGTERM to the daemon named in the PID file and waits
// for it to exit.
func stopDaemon() error {
	pid, err := readPID()
	if err != nil {
		return fmt.Errorf("no daemon running (could not read PID file: %v)", err)
	}
	if !processExists(pid) {
		_ = os.Remove(pidFilePath())
		return fmt.Errorf("no daemon running (PID %d is not active, removed stale PID file)", pid)
	}

	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("signalling daemon (PID %d): %w", pid, err)
	}

	deadline := time.Now().Add(stopWait)
	for processExists(pid) {
		if time.Now().After(deadline) {
			return fmt.Errorf("daemon (PID %d) did not exit within %s", pid, stopWait)
		}
		time.Sleep(100 * time.Millisecond)
	}
	_ = os.Remove(pidFilePath())
	fmt.Printf("Stopped daemon (PID %d)\n", pid)
	return nil
}

// processExists sends signal 0, which checks for the process without
// delivering anything.
func processExists(pid int) bool {
	return syscall.Kill(pid, 0) == nil
}
