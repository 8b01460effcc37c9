package workflows

import (
	"context"
	"fmt"
	"os"

	"github.com/PolarWolf314/backpack/internal/container"
	kerrors "github.com/PolarWolf314/backpack/internal/errors"
	logger "github.com/PolarWolf314/backpack/internal/logging"
	"github.com/PolarWolf314/backpack/internal/secrets"
	"github.com/PolarWolf314/backpack/internal/vault"
)

// EmbedSource selects where an embedded value is read from.
type EmbedSource string

const (
	EmbedFromVault EmbedSource = "vault"
	EmbedFromEnv   EmbedSource = "env"
	EmbedFromValue EmbedSource = "value"
)

// EmbedOptions configures the embed workflow.
type EmbedOptions struct {
	ContainerPath string
	MasterKey     secrets.MasterKey

	// Name must already be declared in the container.
	Name string

	// From selects the value source. Value is used with EmbedFromValue.
	From  EmbedSource
	Value string

	// Remove turns a portable credential back into a placeholder.
	Remove bool

	Vault     vault.Vault
	LookupEnv func(string) (string, bool)
	Redactor  *logger.Redactor
}

// EmbedResult contains the outcome of an embed operation.
type EmbedResult struct {
	Name     string
	Source   EmbedSource
	Portable bool
}

// Embed stores a credential's real value inside the encrypted credentials
// layer so it travels with the container. Only the credentials layer is
// re-encrypted.
//
// Returns ErrUnknownCredential if Name is not declared in the container.
// Returns ErrCredentialNotFound if the chosen source has no value.
func Embed(ctx context.Context, opts EmbedOptions) (*EmbedResult, error) {
	c, err := container.ReadFile(opts.ContainerPath)
	if err != nil {
		return nil, err
	}
	u, err := container.Unlock(c, opts.MasterKey)
	if err != nil {
		return nil, err
	}
	defer u.Close()

	reqs, err := u.Credentials()
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, r := range reqs {
		if r.Name == opts.Name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrUnknownCredential, opts.Name)
	}

	result := &EmbedResult{Name: opts.Name, Source: opts.From}
	if opts.Remove {
		reqs[idx] = container.NewRequirement(opts.Name)
	} else {
		value, err := embedValue(opts)
		if err != nil {
			return nil, err
		}
		if opts.Redactor != nil {
			opts.Redactor.Add(value)
		}
		reqs[idx] = container.CredentialRequirement{Name: opts.Name, Value: value, Portable: true}
		result.Portable = true
	}

	if err := u.SetCredentials(reqs); err != nil {
		return nil, err
	}
	if err := container.WriteFile(opts.ContainerPath, u.Container()); err != nil {
		return nil, err
	}
	return result, nil
}

func embedValue(opts EmbedOptions) (string, error) {
	switch opts.From {
	case EmbedFromValue:
		if opts.Value == "" {
			return "", fmt.Errorf("%w: %s", kerrors.ErrEmptyValue, opts.Name)
		}
		return opts.Value, nil
	case EmbedFromEnv:
		lookup := opts.LookupEnv
		if lookup == nil {
			lookup = os.LookupEnv
		}
		value, ok := lookup(opts.Name)
		if !ok || value == "" {
			return "", fmt.Errorf("%w: %s is not set in the environment", kerrors.ErrCredentialNotFound, opts.Name)
		}
		return value, nil
	case EmbedFromVault, "":
		if opts.Vault == nil {
			return "", fmt.Errorf("%w: no vault configured", kerrors.ErrVaultUnavailable)
		}
		return opts.Vault.Retrieve(opts.Name)
	default:
		return "", fmt.Errorf("unknown value source %q", opts.From)
	}
}
