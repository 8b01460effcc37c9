//go:build !windows

package utils

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

var forwardedSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT}

// inForeground reports whether this process is in the foreground process
// group of its controlling terminal. The child inherits that group, so the
// terminal driver already hands it Ctrl-C and Ctrl-\.
func inForeground() bool {
	tty, err := os.Open("/dev/tty")
	if err != nil {
		return false
	}
	defer tty.Close()

	pgrp, err := unix.IoctlGetInt(int(tty.Fd()), unix.TIOCGPGRP)
	return err == nil && pgrp == unix.Getpgrp()
}

// forwardable reports whether sig still has to be relayed to the child.
// Keyboard signals in the foreground were delivered to it by the terminal.
func forwardable(sig os.Signal, foreground bool) bool {
	if !foreground {
		return true
	}
	return sig != syscall.SIGINT && sig != syscall.SIGQUIT
}

func terminate(p *os.Process) error {
	return p.Signal(syscall.SIGTERM)
}

func exitCode(state *os.ProcessState) int {
	if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal())
	}
	return state.ExitCode()
}
