package container

import (
	"encoding/json"
	"fmt"

	"github.com/PolarWolf314/backpack/internal/secrets"

	"github.com/google/uuid"
)

// Seal builds a new container around contents with a fresh id and salt.
func Seal(master secrets.MasterKey, contents Contents) (*Unlocked, error) {
	salt, err := secrets.NewSalt()
	if err != nil {
		return nil, err
	}

	key, err := secrets.DeriveKey(master, salt)
	if err != nil {
		return nil, err
	}

	u := &Unlocked{
		container: &AgentContainer{
			FormatVersion: FormatVersion,
			ID:            uuid.NewString(),
			Salt:          salt,
			KDF:           KDFParams{Name: secrets.KDFName, Iterations: secrets.KDFIterations},
			Layers:        make(map[LayerName]secrets.EncryptedBlob, len(Layers)),
		},
		key: key,
	}

	if err := u.SetCredentials(contents.Credentials); err != nil {
		u.Close()
		return nil, err
	}
	if err := u.SetPersonality(contents.Personality); err != nil {
		u.Close()
		return nil, err
	}
	if err := u.SetMemory(contents.Memory); err != nil {
		u.Close()
		return nil, err
	}
	return u, nil
}

// Unlocked is a container paired with its derived key. Layers are decrypted
// on demand and each setter re-encrypts only its own layer. Not safe for
// concurrent use.
type Unlocked struct {
	container *AgentContainer
	key       *secrets.Key
}

// Unlock derives the container key from master. A wrong key is detected on
// the first layer read.
func Unlock(c *AgentContainer, master secrets.MasterKey) (*Unlocked, error) {
	key, err := secrets.DeriveKey(master, c.Salt)
	if err != nil {
		return nil, err
	}
	return &Unlocked{container: c.Clone(), key: key}, nil
}

// Container returns the sealed form, suitable for WriteFile.
func (u *Unlocked) Container() *AgentContainer { return u.container }

// ID returns the container id.
func (u *Unlocked) ID() string { return u.container.ID }

// Close wipes the derived key.
func (u *Unlocked) Close() {
	if u.key != nil {
		u.key.Wipe()
	}
}

// Credentials decrypts the credentials layer.
func (u *Unlocked) Credentials() ([]CredentialRequirement, error) {
	data, err := u.open(LayerCredentials)
	if err != nil {
		return nil, err
	}
	defer wipe(data)
	return decodeCredentials(data)
}

// Personality decrypts the personality layer.
func (u *Unlocked) Personality() (Personality, error) {
	data, err := u.open(LayerPersonality)
	if err != nil {
		return Personality{}, err
	}
	return decodePersonality(data)
}

// Memory decrypts the memory layer.
func (u *Unlocked) Memory() (MemorySnapshot, error) {
	data, err := u.open(LayerMemory)
	if err != nil {
		return nil, err
	}
	return decodeMemory(data)
}

// Contents decrypts all three layers.
func (u *Unlocked) Contents() (Contents, error) {
	creds, err := u.Credentials()
	if err != nil {
		return Contents{}, err
	}
	personality, err := u.Personality()
	if err != nil {
		return Contents{}, err
	}
	memory, err := u.Memory()
	if err != nil {
		return Contents{}, err
	}
	return Contents{Credentials: creds, Personality: personality, Memory: memory}, nil
}

// SetCredentials replaces the credentials layer.
func (u *Unlocked) SetCredentials(reqs []CredentialRequirement) error {
	data, err := encodeCredentials(reqs)
	if err != nil {
		return err
	}
	defer wipe(data)
	return u.seal(LayerCredentials, data)
}

// SetPersonality replaces the personality layer.
func (u *Unlocked) SetPersonality(p Personality) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding personality: %w", err)
	}
	return u.seal(LayerPersonality, data)
}

// SetMemory replaces the memory layer.
func (u *Unlocked) SetMemory(m MemorySnapshot) error {
	data, err := encodeMemory(m)
	if err != nil {
		return err
	}
	return u.seal(LayerMemory, data)
}

// Rekey re-encrypts every layer under master with a fresh salt. The id is
// kept. The receiver is left untouched.
func (u *Unlocked) Rekey(master secrets.MasterKey) (*Unlocked, error) {
	contents, err := u.Contents()
	if err != nil {
		return nil, err
	}

	next, err := Seal(master, contents)
	if err != nil {
		return nil, err
	}
	next.container.ID = u.container.ID
	return next, nil
}

func (u *Unlocked) open(layer LayerName) ([]byte, error) {
	return secrets.Decrypt(u.key, u.container.Layers[layer], layer.aad())
}

func (u *Unlocked) seal(layer LayerName, plaintext []byte) error {
	blob, err := secrets.Encrypt(u.key, plaintext, layer.aad())
	if err != nil {
		return fmt.Errorf("encrypting %s layer: %w", layer, err)
	}
	u.container.Layers[layer] = blob
	return nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
