package configs

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Vault.ServiceName != DefaultServiceName {
		t.Errorf("ServiceName = %q, want %q", cfg.Vault.ServiceName, DefaultServiceName)
	}
	if cfg.MasterKey.Env != DefaultMasterKeyEnv {
		t.Errorf("MasterKey.Env = %q, want %q", cfg.MasterKey.Env, DefaultMasterKeyEnv)
	}
	if cfg.MasterKey.AllowInsecureDefault {
		t.Error("insecure default key must be opt-in")
	}
	if len(cfg.Run.NonInteractiveEnv) != 0 {
		t.Errorf("NonInteractiveEnv = %v, want empty", cfg.Run.NonInteractiveEnv)
	}
	if !reflect.DeepEqual(cfg.Run.Interpreters, DefaultInterpreters()) {
		t.Errorf("Interpreters = %v, want defaults", cfg.Run.Interpreters)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[vault]
backend = "file"

[run]
non_interactive_env = ["CI", "RAILWAY_ENVIRONMENT"]

[run.interpreters]
".py" = "python3.12"
".sh" = ""
".ts" = "deno"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Vault.Backend != "file" {
		t.Errorf("Backend = %q, want %q", cfg.Vault.Backend, "file")
	}
	if cfg.Vault.ServiceName != DefaultServiceName {
		t.Errorf("ServiceName = %q, want default", cfg.Vault.ServiceName)
	}
	if cfg.MasterKey.Env != DefaultMasterKeyEnv {
		t.Errorf("MasterKey.Env = %q, want default", cfg.MasterKey.Env)
	}
	if !reflect.DeepEqual(cfg.Run.NonInteractiveEnv, []string{"CI", "RAILWAY_ENVIRONMENT"}) {
		t.Errorf("NonInteractiveEnv = %v", cfg.Run.NonInteractiveEnv)
	}

	want := map[string]string{".py": "python3.12", ".js": "node", ".rb": "ruby", ".ts": "deno"}
	if !reflect.DeepEqual(cfg.Run.Interpreters, want) {
		t.Errorf("Interpreters = %v, want %v", cfg.Run.Interpreters, want)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[vault\nbackend = "), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for malformed TOML, got nil")
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.MasterKey.Env = "MY_AGENT_KEY"
	cfg.MasterKey.AllowInsecureDefault = true

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.MasterKey.Env != "MY_AGENT_KEY" || !loaded.MasterKey.AllowInsecureDefault {
		t.Errorf("MasterKey = %+v", loaded.MasterKey)
	}
}

func TestDefaultPathHonorsOverride(t *testing.T) {
	t.Setenv(ConfigPathEnv, "/tmp/custom/backpack.toml")
	got, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath failed: %v", err)
	}
	if got != "/tmp/custom/backpack.toml" {
		t.Errorf("DefaultPath() = %q", got)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/vault"); got != filepath.Join(home, "vault") {
		t.Errorf("ExpandHome() = %q", got)
	}
	if got := ExpandHome("/abs/vault"); got != "/abs/vault" {
		t.Errorf("ExpandHome() changed an absolute path: %q", got)
	}
}
