package configs

import (
	"fmt"
	"os"
)

// Config is the user configuration.
type Config struct {
	Vault     VaultConfig     `toml:"vault"`
	MasterKey MasterKeyConfig `toml:"master_key"`
	Run       RunConfig       `toml:"run"`
}

type VaultConfig struct {
	// Backend names a keyring backend ("keychain", "wincred", "secret-service",
	// "kwallet", "keyctl", "pass", "file"). Empty selects the platform default.
	Backend     string `toml:"backend"`
	ServiceName string `toml:"service_name"`
	FileDir     string `toml:"file_dir"`
}

type MasterKeyConfig struct {
	// Env is the environment variable holding the master key. Its presence
	// also switches runs into non-interactive mode.
	Env string `toml:"env"`

	// AllowInsecureDefault permits the well-known fallback key when Env is unset.
	AllowInsecureDefault bool `toml:"allow_insecure_default"`
}

type RunConfig struct {
	// NonInteractiveEnv lists extra variables whose presence forces non-interactive mode.
	NonInteractiveEnv []string `toml:"non_interactive_env"`

	// Interpreters maps a script extension to the program that runs it.
	Interpreters map[string]string `toml:"interpreters"`
}

// Defaults for Config.
const (
	DefaultServiceName  = "backpack-agent"
	DefaultMasterKeyEnv = "AGENT_MASTER_KEY"
)

// DefaultInterpreters returns the built-in extension to interpreter mapping.
func DefaultInterpreters() map[string]string {
	return map[string]string{
		".py": "python3",
		".js": "node",
		".sh": "sh",
		".rb": "ruby",
	}
}

// Default returns a Config with every field set to its default.
func Default() *Config {
	return &Config{
		Vault: VaultConfig{
			ServiceName: DefaultServiceName,
			FileDir:     DefaultVaultDir(),
		},
		MasterKey: MasterKeyConfig{
			Env: DefaultMasterKeyEnv,
		},
		Run: RunConfig{
			Interpreters: DefaultInterpreters(),
		},
	}
}

// Load reads the configuration at path. A missing file yields Default().
func Load(path string) (*Config, error) {
	loaded := &Config{}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	if err := LoadTOML(path, loaded); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	return withDefaults(loaded), nil
}

// Save writes the configuration to path, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := SaveTOML(path, cfg); err != nil {
		return fmt.Errorf("failed to save config %s: %w", path, err)
	}
	return nil
}

// withDefaults fills every unset field of cfg from Default().
func withDefaults(cfg *Config) *Config {
	def := Default()

	if cfg.Vault.ServiceName == "" {
		cfg.Vault.ServiceName = def.Vault.ServiceName
	}
	if cfg.Vault.FileDir == "" {
		cfg.Vault.FileDir = def.Vault.FileDir
	} else {
		cfg.Vault.FileDir = ExpandHome(cfg.Vault.FileDir)
	}
	if cfg.MasterKey.Env == "" {
		cfg.MasterKey.Env = def.MasterKey.Env
	}

	interpreters := def.Run.Interpreters
	for ext, prog := range cfg.Run.Interpreters {
		if prog == "" {
			delete(interpreters, ext)
			continue
		}
		interpreters[ext] = prog
	}
	cfg.Run.Interpreters = interpreters

	return cfg
}
