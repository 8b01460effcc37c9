package cmd

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PolarWolf314/backpack/internal/configs"
	"github.com/PolarWolf314/backpack/internal/vault"

	"github.com/99designs/keyring"
	"github.com/fatih/color"
)

const testMasterKey = "correct horse battery staple"

// setupTestEnvironment moves into a fresh directory with no user config, no
// master key in the environment and an in-memory vault.
func setupTestEnvironment(t *testing.T) (string, *keyring.ArrayKeyring) {
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
		ResetGlobalState()
	})

	t.Setenv(configs.ConfigPathEnv, filepath.Join(tempDir, "config.toml"))
	t.Setenv("NO_COLOR", "1")
	for _, name := range []string{configs.DefaultMasterKeyEnv, configs.ContainerPathEnv} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	color.NoColor = true

	return tempDir, keyring.NewArrayKeyring(nil)
}

// runCLI runs the root command with args and stdin, returning the combined
// output and the exit status.
func runCLI(t *testing.T, ring *keyring.ArrayKeyring, stdin string, args ...string) (string, int) {
	t.Helper()
	return runCLIWithVault(t, func(configs.VaultConfig) (vault.Vault, error) {
		return vault.New(ring, "array"), nil
	}, stdin, args...)
}

// runCLIWithVault is runCLI with a custom vault opener. Consent prompts
// always read end of input, which declines.
func runCLIWithVault(t *testing.T, open func(configs.VaultConfig) (vault.Vault, error), stdin string, args ...string) (string, int) {
	t.Helper()
	ResetGlobalState()
	SetVaultOpener(open)
	SetConsentInput(strings.NewReader(""))

	stdinReader, stdinWriter, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create stdin pipe: %v", err)
	}
	go func() {
		_, _ = io.WriteString(stdinWriter, stdin)
		stdinWriter.Close()
	}()
	originalStdin := os.Stdin
	os.Stdin = stdinReader
	defer func() {
		os.Stdin = originalStdin
		stdinReader.Close()
	}()

	RootCmd.SetArgs(args)
	var code int
	output, _ := captureOutput(func() error {
		code = Execute()
		return nil
	})
	return output, code
}

// captureOutput captures both stdout and stderr during function execution.
func captureOutput(fn func() error) (string, error) {
	originalStdout := os.Stdout
	originalStderr := os.Stderr

	stdoutReader, stdoutWriter, _ := os.Pipe()
	stderrReader, stderrWriter, _ := os.Pipe()

	os.Stdout = stdoutWriter
	os.Stderr = stderrWriter

	outputChan := make(chan string, 2)

	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stdoutReader); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		outputChan <- buf.String()
	}()

	go func() {
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, stderrReader); err != nil {
			log.Fatalf("Failed to run copy command: %s", err)
		}
		outputChan <- buf.String()
	}()

	err := fn()

	stdoutWriter.Close()
	stderrWriter.Close()

	os.Stdout = originalStdout
	os.Stderr = originalStderr

	stdout := <-outputChan
	stderr := <-outputChan

	return stdout + stderr, err
}
