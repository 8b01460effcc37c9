// Package vault resolves real credential values from the operating system's
// secret store.
//
// The store is reached through github.com/99designs/keyring. The backend is
// picked once at startup: the configured backend if any, otherwise the
// platform default list (Keychain on macOS, Credential Manager on Windows,
// Secret Service, KWallet, keyctl or pass elsewhere).
//
// Two failure kinds are kept apart. ErrCredentialNotFound means the name has
// no entry and a run can continue without it. ErrVaultUnavailable means the
// store itself failed and the run must stop.
package vault
