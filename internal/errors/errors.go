package errors

import (
	"errors"
	"fmt"
)

// Container errors indicate the agent.lock file cannot be used.
var (
	// ErrFormat indicates the container is structurally malformed.
	ErrFormat = errors.New("agent container is malformed")

	// ErrUnsupportedVersion indicates the container declares a format version this build cannot read.
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported format version", ErrFormat)

	// ErrContainerNotFound indicates no agent.lock could be located.
	ErrContainerNotFound = errors.New("agent container not found")

	// ErrContainerExists indicates an agent.lock already exists at the target path.
	ErrContainerExists = errors.New("agent container already exists")

	// ErrWriteFailed indicates the container could not be replaced on disk.
	ErrWriteFailed = errors.New("failed to write agent container")
)

// Cryptographic errors.
var (
	// ErrDecryptionFailed indicates a layer failed authentication. The cause
	// (wrong master key, corrupted ciphertext, tampered tag) is intentionally
	// not distinguished.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrMasterKeyMissing indicates no master key could be resolved for the operation.
	ErrMasterKeyMissing = errors.New("master key is not set")
)

// Vault errors.
var (
	// ErrVaultUnavailable indicates the platform credential store cannot be reached.
	ErrVaultUnavailable = errors.New("vault is unavailable")

	// ErrCredentialNotFound indicates a credential has no value in the vault,
	// the container or the parent environment.
	ErrCredentialNotFound = errors.New("credential not found")
)

// Run errors.
var (
	// ErrConsentDeclined indicates the operator declined to inject a credential.
	ErrConsentDeclined = errors.New("consent declined")

	// ErrChildProcess indicates the target program could not be started.
	ErrChildProcess = errors.New("failed to start agent program")
)

// Validation errors.
var (
	// ErrInvalidCredentialName indicates a credential name contains illegal characters.
	ErrInvalidCredentialName = errors.New("invalid credential name")

	// ErrEmptyValue indicates an empty secret value was supplied.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrDuplicateCredential indicates a credential name was declared twice.
	ErrDuplicateCredential = errors.New("credential declared more than once")

	// ErrUnknownCredential indicates the container does not declare the named credential.
	ErrUnknownCredential = errors.New("credential is not declared in the container")
)

// Memory errors.
var (
	// ErrInvalidMemoryValue indicates a memory update cannot be applied to the stored value.
	ErrInvalidMemoryValue = errors.New("invalid memory value")
)

// IsFatal reports whether err must abort a run before the child process starts.
func IsFatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrCredentialNotFound), errors.Is(err, ErrConsentDeclined):
		return false
	default:
		return true
	}
}
