//go:build !windows

package utils

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestRunProcessForwardsHangup(t *testing.T) {
	go func() {
		time.Sleep(300 * time.Millisecond)
		_ = syscall.Kill(os.Getpid(), syscall.SIGHUP)
	}()

	code, err := RunProcess(context.Background(), helperArgv(), helperEnv("HELPER_MODE=sleep"), ProcessIO{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 128+int(syscall.SIGHUP) {
		t.Errorf("exit code = %d, want %d (SIGHUP)", code, 128+int(syscall.SIGHUP))
	}
}

func TestForwardable(t *testing.T) {
	tests := []struct {
		name       string
		sig        os.Signal
		foreground bool
		want       bool
	}{
		{"interrupt from terminal", syscall.SIGINT, true, false},
		{"quit from terminal", syscall.SIGQUIT, true, false},
		{"terminate in foreground", syscall.SIGTERM, true, true},
		{"hangup in foreground", syscall.SIGHUP, true, true},
		{"interrupt in background", syscall.SIGINT, false, true},
		{"quit in background", syscall.SIGQUIT, false, true},
		{"terminate in background", syscall.SIGTERM, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := forwardable(tt.sig, tt.foreground); got != tt.want {
				t.Errorf("forwardable(%v, %v) = %v, want %v", tt.sig, tt.foreground, got, tt.want)
			}
		})
	}
}
