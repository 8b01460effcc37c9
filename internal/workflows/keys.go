package workflows

import (
	"context"
	"fmt"

	kerrors "github.com/PolarWolf314/backpack/internal/errors"
	"github.com/PolarWolf314/backpack/internal/utils"
	"github.com/PolarWolf314/backpack/internal/vault"
)

// KeyAddOptions configures the key add workflow.
type KeyAddOptions struct {
	Vault vault.Vault
	Name  string
	Value string
}

// KeyAdd stores a credential value in the vault, replacing any existing one.
func KeyAdd(ctx context.Context, opts KeyAddOptions) error {
	if err := utils.ValidateCredentialName(opts.Name); err != nil {
		return err
	}
	if opts.Value == "" {
		return fmt.Errorf("%w: %s", kerrors.ErrEmptyValue, opts.Name)
	}
	return opts.Vault.Store(opts.Name, opts.Value)
}

// KeyList returns the names stored in the vault.
func KeyList(ctx context.Context, v vault.Vault) ([]string, error) {
	return v.List()
}

// KeyRemove deletes a credential from the vault.
//
// Returns ErrCredentialNotFound if the vault has no entry for name.
func KeyRemove(ctx context.Context, v vault.Vault, name string) error {
	if err := utils.ValidateCredentialName(name); err != nil {
		return err
	}
	return v.Delete(name)
}
