package container

import (
	"bytes"
	"encoding/json"
	"fmt"

	kerrors "github.com/PolarWolf314/backpack/internal/errors"
	"github.com/PolarWolf314/backpack/internal/secrets"

	"github.com/google/uuid"
)

// FormatVersion is the only container format this build reads and writes.
const FormatVersion = 1

// LayerName identifies one of the three fixed layers.
type LayerName string

const (
	LayerCredentials LayerName = "credentials"
	LayerPersonality LayerName = "personality"
	LayerMemory      LayerName = "memory"
)

// Layers lists every layer in a fixed order.
var Layers = []LayerName{LayerCredentials, LayerPersonality, LayerMemory}

// aad binds a blob to its layer so blobs cannot be swapped between layers.
func (l LayerName) aad() []byte {
	return []byte(fmt.Sprintf("backpack/v%d/%s", FormatVersion, l))
}

// KDFParams records the key derivation function used for the salt.
type KDFParams struct {
	Name       string `json:"name"`
	Iterations int    `json:"iterations"`
}

// AgentContainer is the on-disk unit. Layer contents are only reachable
// through Unlock.
type AgentContainer struct {
	FormatVersion int                                 `json:"format_version"`
	ID            string                              `json:"id"`
	Salt          []byte                              `json:"salt"`
	KDF           KDFParams                           `json:"kdf"`
	Layers        map[LayerName]secrets.EncryptedBlob `json:"layers"`
}

// Clone returns a deep copy of c.
func (c *AgentContainer) Clone() *AgentContainer {
	out := &AgentContainer{
		FormatVersion: c.FormatVersion,
		ID:            c.ID,
		Salt:          append([]byte(nil), c.Salt...),
		KDF:           c.KDF,
		Layers:        make(map[LayerName]secrets.EncryptedBlob, len(c.Layers)),
	}
	for name, blob := range c.Layers {
		out.Layers[name] = secrets.EncryptedBlob{
			Nonce:      append([]byte(nil), blob.Nonce...),
			Ciphertext: append([]byte(nil), blob.Ciphertext...),
			Tag:        append([]byte(nil), blob.Tag...),
		}
	}
	return out
}

// Encode validates c and renders its full byte representation.
func Encode(c *AgentContainer) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil container", kerrors.ErrFormat)
	}
	if err := validate(c); err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding container: %w", err)
	}
	return append(data, '\n'), nil
}

// versionProbe reads only the version so an unknown version is reported
// before the rest of the shape is interpreted.
type versionProbe struct {
	FormatVersion *int `json:"format_version"`
}

// Decode parses data into a container. It never touches key material.
func Decode(data []byte) (*AgentContainer, error) {
	var probe versionProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrFormat, err)
	}
	if probe.FormatVersion == nil {
		return nil, fmt.Errorf("%w: missing format_version", kerrors.ErrFormat)
	}
	if *probe.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: %d (this build reads version %d)", kerrors.ErrUnsupportedVersion, *probe.FormatVersion, FormatVersion)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var c AgentContainer
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrFormat, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after container", kerrors.ErrFormat)
	}

	if err := validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func validate(c *AgentContainer) error {
	if c.FormatVersion != FormatVersion {
		return fmt.Errorf("%w: %d", kerrors.ErrUnsupportedVersion, c.FormatVersion)
	}
	if _, err := uuid.Parse(c.ID); err != nil {
		return fmt.Errorf("%w: invalid id: %v", kerrors.ErrFormat, err)
	}
	if len(c.Salt) < secrets.SaltSize {
		return fmt.Errorf("%w: salt must be at least %d bytes, got %d", kerrors.ErrFormat, secrets.SaltSize, len(c.Salt))
	}
	if c.KDF.Name != secrets.KDFName || c.KDF.Iterations != secrets.KDFIterations {
		return fmt.Errorf("%w: unsupported kdf %s/%d", kerrors.ErrFormat, c.KDF.Name, c.KDF.Iterations)
	}

	if len(c.Layers) != len(Layers) {
		return fmt.Errorf("%w: expected %d layers, found %d", kerrors.ErrFormat, len(Layers), len(c.Layers))
	}
	for _, name := range Layers {
		blob, ok := c.Layers[name]
		if !ok {
			return fmt.Errorf("%w: missing %s layer", kerrors.ErrFormat, name)
		}
		if len(blob.Nonce) != secrets.NonceSize {
			return fmt.Errorf("%w: %s layer nonce must be %d bytes", kerrors.ErrFormat, name, secrets.NonceSize)
		}
		if len(blob.Tag) != secrets.TagSize {
			return fmt.Errorf("%w: %s layer tag must be %d bytes", kerrors.ErrFormat, name, secrets.TagSize)
		}
	}
	return nil
}
