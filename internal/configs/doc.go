// Package configs manages Backpack's user configuration.
//
// Configuration is stored in TOML at $XDG_CONFIG_HOME/backpack/config.toml
// (or the path in BACKPACK_CONFIG). A missing file is not an error: every
// setting has a default, and a partial file only overrides what it names.
//
//	[vault]
//	backend = "file"              # empty selects the platform default
//	service_name = "backpack-agent"
//	file_dir = "~/.local/share/backpack/vault"
//
//	[master_key]
//	env = "AGENT_MASTER_KEY"
//	allow_insecure_default = false
//
//	[run]
//	non_interactive_env = ["CI"]
//
//	[run.interpreters]
//	".py" = "python3"
//
// The master key itself is never stored here. Only the name of the
// environment variable that carries it is configurable.
package configs
