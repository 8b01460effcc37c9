package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"time"

	kerrors "github.com/PolarWolf314/backpack/internal/errors"
)

// ProcessIO holds the standard streams handed to a child process.
type ProcessIO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// terminateGrace is how long a cancelled child gets before it is killed.
const terminateGrace = 10 * time.Second

// RunProcess starts argv with env and waits for it. Signals received by this
// process while the child runs are forwarded to it, except keyboard signals
// the terminal already sent to the child's process group. The returned code is the
// child's exit status, or 128+N when it was killed by signal N.
//
// A failure to start returns ErrChildProcess.
func RunProcess(ctx context.Context, argv, env []string, stdio ProcessIO) (int, error) {
	if len(argv) == 0 {
		return 0, fmt.Errorf("%w: empty command", kerrors.ErrChildProcess)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = env
	cmd.Stdin = stdio.Stdin
	cmd.Stdout = stdio.Stdout
	cmd.Stderr = stdio.Stderr
	cmd.Cancel = func() error { return terminate(cmd.Process) }
	cmd.WaitDelay = terminateGrace

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", kerrors.ErrChildProcess, argv[0], err)
	}

	foreground := inForeground()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, forwardedSignals...)
	defer signal.Stop(sigs)

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case sig := <-sigs:
				if forwardable(sig, foreground) {
					_ = cmd.Process.Signal(sig)
				}
			case <-done:
				return
			}
		}
	}()

	err := cmd.Wait()
	if cmd.ProcessState != nil {
		return exitCode(cmd.ProcessState), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitCode(exitErr.ProcessState), nil
	}
	return 0, fmt.Errorf("waiting for %s: %w", argv[0], err)
}
