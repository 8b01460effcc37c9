package workflows

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/PolarWolf314/backpack/internal/container"
	kerrors "github.com/PolarWolf314/backpack/internal/errors"
	"github.com/PolarWolf314/backpack/internal/secrets"
	"github.com/PolarWolf314/backpack/internal/vault"
)

// CredentialStatus describes one declared credential without its value.
type CredentialStatus struct {
	Name     string `json:"name"`
	Portable bool   `json:"portable"`

	// InVault is nil when the vault was not consulted.
	InVault *bool `json:"in_vault,omitempty"`
}

// StatusOptions configures the status workflow.
type StatusOptions struct {
	ContainerPath string
	MasterKey     secrets.MasterKey

	// Vault, if set, is checked for every non-portable credential.
	Vault vault.Vault
}

// StatusResult contains the outcome of a status operation.
type StatusResult struct {
	Path          string                `json:"path"`
	ID            string                `json:"id"`
	FormatVersion int                   `json:"format_version"`
	Size          int64                 `json:"size"`
	Modified      time.Time             `json:"modified"`
	KeySource     string                `json:"key_source"`
	Credentials   []CredentialStatus    `json:"credentials"`
	Personality   container.Personality `json:"personality"`
	MemoryKeys    int                   `json:"memory_keys"`
}

// Status summarizes a container. Credential values are never included.
//
// Returns ErrDecryptionFailed if MasterKey does not open the container.
func Status(ctx context.Context, opts StatusOptions) (*StatusResult, error) {
	info, err := os.Stat(opts.ContainerPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, kerrors.ErrContainerNotFound
		}
		return nil, err
	}

	c, err := container.ReadFile(opts.ContainerPath)
	if err != nil {
		return nil, err
	}
	u, err := container.Unlock(c, opts.MasterKey)
	if err != nil {
		return nil, err
	}
	defer u.Close()

	contents, err := u.Contents()
	if err != nil {
		return nil, err
	}

	result := &StatusResult{
		Path:          opts.ContainerPath,
		ID:            c.ID,
		FormatVersion: c.FormatVersion,
		Size:          info.Size(),
		Modified:      info.ModTime(),
		KeySource:     opts.MasterKey.Source.String(),
		Credentials:   make([]CredentialStatus, 0, len(contents.Credentials)),
		Personality:   contents.Personality,
		MemoryKeys:    len(contents.Memory),
	}

	for _, req := range contents.Credentials {
		status := CredentialStatus{Name: req.Name, Portable: req.Portable}
		if opts.Vault != nil && !req.Portable {
			_, err := opts.Vault.Retrieve(req.Name)
			switch {
			case err == nil:
				found := true
				status.InVault = &found
			case errors.Is(err, kerrors.ErrCredentialNotFound):
				found := false
				status.InVault = &found
			default:
				return nil, err
			}
		}
		result.Credentials = append(result.Credentials, status)
	}

	return result, nil
}
