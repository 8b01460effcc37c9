// Package shared contains testing utilities shared between integration tests.
// This file provides common functions for setting up test environments,
// running the CLI and capturing its output.
package shared

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PolarWolf314/backpack/cmd"
	"github.com/PolarWolf314/backpack/internal/configs"
	"github.com/PolarWolf314/backpack/internal/vault"

	"github.com/99designs/keyring"
	"github.com/fatih/color"
)

// TestMasterKey is the master key integration tests seal containers with.
const TestMasterKey = "integration test master key"

// SetupTestEnvironment moves into a fresh directory with no user config and no
// backpack variables in the environment. It returns the directory and an
// in-memory keyring that RunCLI installs as the vault.
func SetupTestEnvironment(t *testing.T) (string, *keyring.ArrayKeyring) {
	t.Helper()
	tempDir := t.TempDir()

	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("Failed to change to temp directory: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(originalWd); err != nil {
			t.Fatalf("Failed to change to original directory: %v", err)
		}
		cmd.ResetGlobalState()
	})

	t.Setenv(configs.ConfigPathEnv, filepath.Join(tempDir, "config.toml"))
	t.Setenv("NO_COLOR", "1")
	UnsetEnv(t, configs.DefaultMasterKeyEnv, configs.ContainerPathEnv)
	color.NoColor = true

	return tempDir, keyring.NewArrayKeyring(nil)
}

// UnsetEnv removes names from the environment for the rest of the test.
func UnsetEnv(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

// RunCLI runs backpack with args and returns the combined output and exit
// status. Stdin is an empty pipe and every consent prompt reads end of
// input, so nothing can block on the terminal.
func RunCLI(t *testing.T, ring *keyring.ArrayKeyring, args ...string) (string, int) {
	t.Helper()
	return RunCLIWithConsent(t, ring, "", args...)
}

// RunCLIWithConsent is RunCLI with answers fed to the consent prompts, one
// per line.
func RunCLIWithConsent(t *testing.T, ring *keyring.ArrayKeyring, answers string, args ...string) (string, int) {
	t.Helper()
	cmd.ResetGlobalState()
	cmd.SetVaultOpener(func(configs.VaultConfig) (vault.Vault, error) {
		return vault.New(ring, "array"), nil
	})
	cmd.SetConsentInput(strings.NewReader(answers))

	stdinReader, stdinWriter, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create stdin pipe: %v", err)
	}
	stdinWriter.Close()
	originalStdin := os.Stdin
	os.Stdin = stdinReader
	defer func() {
		os.Stdin = originalStdin
		stdinReader.Close()
	}()

	cmd.GetRootCmd().SetArgs(args)
	var code int
	output, _ := CaptureOutput(func() error {
		code = cmd.Execute()
		return nil
	})
	return output, code
}

// CaptureOutput captures both stdout and stderr during function execution.
func CaptureOutput(fn func() error) (string, error) {
	// Save original stdout and stderr
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	// Create pipes to capture output
	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	// Replace stdout and stderr
	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	// Channel to collect output
	outputChan := make(chan string, 2)

	// Start goroutines to read from pipes
	go func() {
		var buf bytes.Buffer
		_, err := io.Copy(&buf, stdoutReader)
		if err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		outputChan <- buf.String()
	}()

	go func() {
		var buf bytes.Buffer
		_, err := io.Copy(&buf, stderrReader)
		if err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		outputChan <- buf.String()
	}()

	// Execute the function
	err := fn()

	// Close writers to signal EOF
	stdoutWriter.Close()
	stderrWriter.Close()

	// Restore original stdout and stderr
	os.Stdout = originalStdout
	os.Stderr = originalStderr

	// Collect output
	stdout := <-outputChan
	stderr := <-outputChan

	return stdout + stderr, err
}

// InitializeContainer runs 'backpack init' in the current directory with the
// test master key and the given credential names.
func InitializeContainer(t *testing.T, ring *keyring.ArrayKeyring, credentials string) {
	t.Helper()
	t.Setenv(configs.DefaultMasterKeyEnv, TestMasterKey)
	output, code := RunCLI(t, ring, "init", "--credentials", credentials, "--system-prompt", "You are a test agent.", "--tone", "terse")
	if code != 0 {
		t.Fatalf("Failed to initialize container (exit %d): %s", code, output)
	}
	VerifyContainer(t, configs.ContainerFileName)
}

// VerifyContainer checks that path holds a private, non-empty container.
func VerifyContainer(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Fatalf("%s was not created", path)
	}
	if err != nil {
		t.Fatalf("Failed to stat %s: %v", path, err)
	}
	if info.Size() == 0 {
		t.Errorf("%s is empty", path)
	}
}
