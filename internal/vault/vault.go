package vault

import (
	"errors"
	"fmt"
	"sort"

	kerrors "github.com/PolarWolf314/backpack/internal/errors"
	"github.com/PolarWolf314/backpack/internal/utils"

	"github.com/99designs/keyring"
)

// Vault stores credential values by name. Entries are shared by every
// container belonging to the same user.
type Vault interface {
	Store(name, value string) error
	Retrieve(name string) (string, error)
	List() ([]string, error)
	Delete(name string) error
}

// KeyringVault implements Vault on top of a keyring.Keyring.
type KeyringVault struct {
	ring    keyring.Keyring
	backend string
}

// New wraps an opened keyring. backend is only used for display.
func New(ring keyring.Keyring, backend string) *KeyringVault {
	return &KeyringVault{ring: ring, backend: backend}
}

// Backend names the backend in use.
func (v *KeyringVault) Backend() string { return v.backend }

// Store saves value under name, replacing any previous value.
func (v *KeyringVault) Store(name, value string) error {
	if err := utils.ValidateCredentialName(name); err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("%w: %s", kerrors.ErrEmptyValue, name)
	}

	err := v.ring.Set(keyring.Item{
		Key:   name,
		Data:  []byte(value),
		Label: "backpack: " + name,
	})
	if err != nil {
		return unavailable("store", name, err)
	}
	return nil
}

// Retrieve returns the value stored under name.
func (v *KeyringVault) Retrieve(name string) (string, error) {
	if err := utils.ValidateCredentialName(name); err != nil {
		return "", err
	}

	item, err := v.ring.Get(name)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("%w: %s", kerrors.ErrCredentialNotFound, name)
		}
		return "", unavailable("retrieve", name, err)
	}
	return string(item.Data), nil
}

// List returns every stored name, sorted.
func (v *KeyringVault) List() ([]string, error) {
	keys, err := v.ring.Keys()
	if err != nil {
		return nil, unavailable("list", "", err)
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if utils.ValidateCredentialName(key) == nil {
			names = append(names, key)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes name. Deleting a missing name returns ErrCredentialNotFound.
func (v *KeyringVault) Delete(name string) error {
	if err := utils.ValidateCredentialName(name); err != nil {
		return err
	}

	if _, err := v.ring.Get(name); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", kerrors.ErrCredentialNotFound, name)
		}
		return unavailable("delete", name, err)
	}

	if err := v.ring.Remove(name); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", kerrors.ErrCredentialNotFound, name)
		}
		return unavailable("delete", name, err)
	}
	return nil
}

// unavailable wraps a backend failure. Only the operation and the name are
// reported.
func unavailable(op, name string, err error) error {
	if name == "" {
		return fmt.Errorf("%w: %s failed: %v", kerrors.ErrVaultUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s %s failed: %v", kerrors.ErrVaultUnavailable, op, name, err)
}
