package workflows

import (
	"context"

	"github.com/PolarWolf314/backpack/internal/container"
	"github.com/PolarWolf314/backpack/internal/secrets"
)

// RotateOptions configures the rotate workflow.
type RotateOptions struct {
	ContainerPath string

	// MasterKey opens the container as it is now.
	MasterKey secrets.MasterKey

	// NewMasterKey seals the result. When zero, MasterKey is reused and only
	// the salt and nonces change.
	NewMasterKey secrets.MasterKey
}

// RotateResult contains the outcome of a rotate operation.
type RotateResult struct {
	// ID is unchanged by rotation.
	ID string

	// KeyChanged is set when a new master key was applied.
	KeyChanged bool

	// InsecureKey is set when the result is sealed with the default key.
	InsecureKey bool
}

// Rotate re-encrypts every layer with a fresh salt, optionally under a new
// master key. The container is replaced atomically; on any error the old
// file is left as it was.
//
// Returns ErrDecryptionFailed if MasterKey does not open the container.
func Rotate(ctx context.Context, opts RotateOptions) (*RotateResult, error) {
	c, err := container.ReadFile(opts.ContainerPath)
	if err != nil {
		return nil, err
	}
	u, err := container.Unlock(c, opts.MasterKey)
	if err != nil {
		return nil, err
	}
	defer u.Close()

	target := opts.NewMasterKey
	if target.IsZero() {
		target = opts.MasterKey
	}

	rotated, err := u.Rekey(target)
	if err != nil {
		return nil, err
	}
	defer rotated.Close()

	if err := container.WriteFile(opts.ContainerPath, rotated.Container()); err != nil {
		return nil, err
	}

	return &RotateResult{
		ID:          rotated.ID(),
		KeyChanged:  !opts.NewMasterKey.IsZero(),
		InsecureKey: target.Insecure(),
	}, nil
}
