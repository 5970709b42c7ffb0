package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// Spawn starts the hover daemon as a detached subprocess, re-invoking the
// current binary with the "daemon" subcommand in its own session.
func Spawn() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("finding executable path: %w", err)
	}

	cmd := exec.Command(exe, "daemon")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting daemon: %w", err)
	}

	// Detached; the daemon logs to its own file and exits on inactivity.
	cmd.Process.Release()
	return nil
}
