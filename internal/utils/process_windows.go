//go:build windows

package utils

import "os"

var forwardedSignals = []os.Signal{os.Interrupt}

// inForeground is always true: Ctrl-C goes to every process attached to the
// console, the child included.
func inForeground() bool {
	return true
}

func forwardable(sig os.Signal, foreground bool) bool {
	return !foreground || sig != os.Interrupt
}

func terminate(p *os.Process) error {
	return p.Kill()
}

func exitCode(state *os.ProcessState) int {
	return state.ExitCode()
}
