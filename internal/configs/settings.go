package configs

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// ContainerFileName is the default agent container file name.
	ContainerFileName = "agent.lock"

	// ConfigPathEnv overrides the configuration file location.
	ConfigPathEnv = "BACKPACK_CONFIG"

	// ContainerPathEnv is exported to agent programs so they can reach their container.
	ContainerPathEnv = "BACKPACK_CONTAINER"

	// VaultPasswordEnv supplies the password for the file vault backend.
	VaultPasswordEnv = "BACKPACK_VAULT_PASSWORD"
)

// DefaultPath returns the configuration file location.
func DefaultPath() (string, error) {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "backpack", "config.toml"), nil
}

// DefaultVaultDir returns the directory used by the file vault backend.
func DefaultVaultDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "backpack", "vault")
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}
	return filepath.Join(dataDir, "backpack", "vault")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[2:])
}
