package cmd

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/PolarWolf314/backpack/internal/configs"
	"github.com/PolarWolf314/backpack/internal/container"
	kerrors "github.com/PolarWolf314/backpack/internal/errors"
	"github.com/PolarWolf314/backpack/internal/secrets"
	"github.com/PolarWolf314/backpack/internal/ui"
	"github.com/PolarWolf314/backpack/internal/utils"
	"github.com/PolarWolf314/backpack/internal/vault"

	"github.com/briandowns/spinner"
)

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = os.Stderr

	if err := s.Color("cyan"); err != nil {
		// If we can't set spinner color, just continue without it.
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	quiet := !verbose && !debug
	if quiet && utils.IsTerminal() {
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("%s", message)
	}

	cleanup := func() {
		if quiet {
			log.SetOutput(os.Stderr)
		}

		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		s.Stop()

		// Print final message to stdout (for tests to capture).
		if finalMsg != "" {
			fmt.Print(redactor.Redact(finalMsg))
		}
	}

	return s, cleanup
}

// loadedConfig returns the loaded configuration, falling back to defaults when
// a command runs without the root pre-run (tests).
func loadedConfig() *configs.Config {
	if userConfig == nil {
		userConfig = configs.Default()
	}
	return userConfig
}

// resolveMasterKey resolves the master key once for the current command.
func resolveMasterKey() (secrets.MasterKey, error) {
	cfg := loadedConfig()
	opts := secrets.ResolveOptions{
		EnvName:              cfg.MasterKey.Env,
		AllowInsecureDefault: cfg.MasterKey.AllowInsecureDefault || insecureDefaultKey,
	}
	if utils.IsTerminal() {
		opts.Prompt = func() ([]byte, error) {
			return utils.ReadSecret(fmt.Sprintf("Master key (%s is not set): ", cfg.MasterKey.Env))
		}
	}

	key, err := secrets.ResolveMasterKey(opts)
	if err != nil {
		return key, err
	}
	Logger.Debugf("Master key resolved from %s", key.Source)
	if key.Insecure() {
		Logger.Warnf("Using the insecure default master key. Anyone with this file can decrypt it. Set %s to a private value.", cfg.MasterKey.Env)
	}
	return key, nil
}

// promptNewMasterKey reads a new master key from envName, or asks twice on
// the terminal.
func promptNewMasterKey(envName string) (secrets.MasterKey, error) {
	if envName != "" {
		value, ok := os.LookupEnv(envName)
		if !ok || value == "" {
			return secrets.MasterKey{}, fmt.Errorf("%w: %s is not set", kerrors.ErrMasterKeyMissing, envName)
		}
		return secrets.NewMasterKey(value, secrets.SourceEnvironment)
	}

	if !utils.IsTerminal() {
		return secrets.MasterKey{}, fmt.Errorf("%w: no terminal to read a new key from (use --new-key-env)", kerrors.ErrMasterKeyMissing)
	}

	first, err := utils.ReadSecret("New master key: ")
	if err != nil {
		return secrets.MasterKey{}, err
	}
	second, err := utils.ReadSecret("Repeat new master key: ")
	if err != nil {
		return secrets.MasterKey{}, err
	}
	if !bytes.Equal(first, second) {
		return secrets.MasterKey{}, fmt.Errorf("%w: keys do not match", kerrors.ErrMasterKeyMissing)
	}
	return secrets.NewMasterKey(string(first), secrets.SourcePrompt)
}

// vaultOpener opens the configured vault. Tests replace it.
var vaultOpener = defaultVaultOpener

func defaultVaultOpener(cfg configs.VaultConfig) (vault.Vault, error) {
	opts := vault.Options{Config: cfg}
	if utils.IsTerminal() {
		opts.Prompt = func(prompt string) (string, error) {
			password, err := utils.ReadSecret(prompt + ": ")
			return string(password), err
		}
	}
	return vault.Open(opts)
}

// SetVaultOpener replaces the vault used by commands, for testing.
func SetVaultOpener(open func(cfg configs.VaultConfig) (vault.Vault, error)) {
	vaultOpener = open
}

func openVault() (vault.Vault, error) {
	v, err := vaultOpener(loadedConfig().Vault)
	if err != nil {
		return nil, err
	}
	if kv, ok := v.(*vault.KeyringVault); ok {
		Logger.Debugf("Vault backend: %s", kv.Backend())
	}
	return v, nil
}

// locateContainer resolves --file, BACKPACK_CONTAINER or the nearest agent.lock.
func locateContainer() (string, error) {
	path, err := container.Locate(containerFlag)
	if err != nil {
		return "", err
	}
	Logger.Debugf("Using container %s", path)
	return path, nil
}

// consentOpener chooses where run reads consent answers. Tests replace it.
var consentOpener = consentInput

// SetConsentInput makes run read consent answers from r, for testing.
func SetConsentInput(r io.Reader) {
	consentOpener = func() (io.Reader, func()) { return r, func() {} }
}

// consentInput returns where consent answers are read from. Stdin is used
// when it is a terminal, then the controlling terminal. Without either every
// prompt reads end of input, which declines.
func consentInput() (io.Reader, func()) {
	if utils.IsTerminal() {
		return os.Stdin, func() {}
	}
	if tty, err := utils.OpenTTY(); err == nil {
		return tty, func() { tty.Close() }
	}
	return strings.NewReader(""), func() {}
}
