package vault

import (
	"fmt"
	"os"
	"strings"

	"github.com/PolarWolf314/backpack/internal/configs"
	kerrors "github.com/PolarWolf314/backpack/internal/errors"

	"github.com/99designs/keyring"
)

var knownBackends = map[string]keyring.BackendType{
	string(keyring.KeychainBackend):      keyring.KeychainBackend,
	string(keyring.WinCredBackend):       keyring.WinCredBackend,
	string(keyring.SecretServiceBackend): keyring.SecretServiceBackend,
	string(keyring.KWalletBackend):       keyring.KWalletBackend,
	string(keyring.KeyCtlBackend):        keyring.KeyCtlBackend,
	string(keyring.PassBackend):          keyring.PassBackend,
	string(keyring.FileBackend):          keyring.FileBackend,
}

// Options controls Open.
type Options struct {
	Config configs.VaultConfig

	// Prompt asks for the file backend password when BACKPACK_VAULT_PASSWORD
	// is unset. Defaults to keyring.TerminalPrompt.
	Prompt keyring.PromptFunc
}

// Open selects a backend and opens the keyring.
func Open(opts Options) (*KeyringVault, error) {
	backends, err := selectBackends(opts.Config.Backend)
	if err != nil {
		return nil, err
	}

	serviceName := opts.Config.ServiceName
	if serviceName == "" {
		serviceName = configs.DefaultServiceName
	}
	fileDir := opts.Config.FileDir
	if fileDir == "" {
		fileDir = configs.DefaultVaultDir()
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              serviceName,
		AllowedBackends:          backends,
		KeychainTrustApplication: true,
		FileDir:                  configs.ExpandHome(fileDir),
		FilePasswordFunc:         filePassword(opts.Prompt),
		KWalletAppID:             serviceName,
		KWalletFolder:            serviceName,
		LibSecretCollectionName:  "login",
		WinCredPrefix:            serviceName,
		KeyCtlScope:              "user",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s keyring: %v", kerrors.ErrVaultUnavailable, describe(backends), err)
	}

	return New(ring, describe(backends)), nil
}

func selectBackends(configured string) ([]keyring.BackendType, error) {
	if configured == "" {
		return platformBackends(), nil
	}

	backend, ok := knownBackends[strings.ToLower(configured)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown backend %q", kerrors.ErrVaultUnavailable, configured)
	}
	return []keyring.BackendType{backend}, nil
}

func filePassword(prompt keyring.PromptFunc) keyring.PromptFunc {
	if password := os.Getenv(configs.VaultPasswordEnv); password != "" {
		return keyring.FixedStringPrompt(password)
	}
	if prompt != nil {
		return prompt
	}
	return keyring.TerminalPrompt
}

func describe(backends []keyring.BackendType) string {
	names := make([]string, len(backends))
	for i, b := range backends {
		names[i] = string(b)
	}
	return strings.Join(names, ",")
}

// Available lists the backends compiled into this build for the current platform.
func Available() []string {
	var names []string
	for _, b := range keyring.AvailableBackends() {
		names = append(names, string(b))
	}
	return names
}
