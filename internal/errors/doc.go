// Package errors provides typed error values for the Backpack application.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching. The set is
// deliberately closed: every failure the orchestrator can hit maps onto one
// of these values, and the CLI layer decides whether it is fatal.
//
// # Error Categories
//
//   - Container errors: the agent.lock file is unreadable or missing (ErrFormat, ErrContainerNotFound)
//   - Crypto errors: authentication failed for any reason (ErrDecryptionFailed)
//   - Vault errors: the OS keyring is unreachable or has no entry (ErrVaultUnavailable, ErrCredentialNotFound)
//   - Run errors: consent and child process outcomes (ErrConsentDeclined, ErrChildProcess)
//
// # Fatal vs. Non-fatal
//
// ErrFormat, ErrDecryptionFailed, ErrVaultUnavailable and ErrChildProcess
// abort a run before the child starts. ErrCredentialNotFound and
// ErrConsentDeclined are collected as warnings; the child still launches.
//
// # Usage
//
//	blob, err := container.Decode(data)
//	if errors.Is(err, kerrors.ErrFormat) {
//	    // Show "re-run backpack init" hint
//	}
//
// Wrap errors with additional context, never with secret values:
//
//	return fmt.Errorf("retrieving %s: %w", name, kerrors.ErrCredentialNotFound)
package errors
