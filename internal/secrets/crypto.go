package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/backpack/internal/errors"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeySize is the derived symmetric key length in bytes.
	KeySize = chacha20poly1305.KeySize

	// SaltSize is the length of the per-container KDF salt.
	SaltSize = 16

	// NonceSize is the XChaCha20-Poly1305 nonce length.
	NonceSize = chacha20poly1305.NonceSizeX

	// TagSize is the Poly1305 authentication tag length.
	TagSize = chacha20poly1305.Overhead

	// KDFName identifies the key derivation function recorded in containers.
	KDFName = "pbkdf2-sha256"

	// KDFIterations is the fixed PBKDF2 iteration count. Changing it makes
	// existing containers unreadable.
	KDFIterations = 100000
)

// Key is a derived symmetric key. Call Wipe once the operation is done.
type Key struct {
	b [KeySize]byte
}

// Wipe zeroes the key material.
func (k *Key) Wipe() {
	for i := range k.b {
		k.b[i] = 0
	}
}

// String never reveals key material.
func (k *Key) String() string { return "secrets.Key(redacted)" }

// EncryptedBlob is one sealed layer.
type EncryptedBlob struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
	Tag        []byte `json:"tag"`
}

// NewSalt generates a random KDF salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	return salt, nil
}

// DeriveKey stretches the master key with the container salt.
func DeriveKey(master MasterKey, salt []byte) (*Key, error) {
	if master.IsZero() {
		return nil, kerrors.ErrMasterKeyMissing
	}
	if len(salt) < SaltSize {
		return nil, fmt.Errorf("%w: salt must be at least %d bytes, got %d", kerrors.ErrFormat, SaltSize, len(salt))
	}

	derived := pbkdf2.Key(master.secret, salt, KDFIterations, KeySize, sha256.New)
	key := &Key{}
	copy(key.b[:], derived)
	for i := range derived {
		derived[i] = 0
	}
	return key, nil
}

// Encrypt seals plaintext under key. aad is authenticated but not encrypted.
func Encrypt(key *Key, plaintext, aad []byte) (EncryptedBlob, error) {
	aead, err := chacha20poly1305.NewX(key.b[:])
	if err != nil {
		return EncryptedBlob{}, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return EncryptedBlob{}, fmt.Errorf("generating random nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, aad)
	split := len(sealed) - TagSize

	return EncryptedBlob{
		Nonce:      nonce,
		Ciphertext: sealed[:split],
		Tag:        sealed[split:],
	}, nil
}

// Decrypt opens blob under key. Every failure yields ErrDecryptionFailed.
func Decrypt(key *Key, blob EncryptedBlob, aad []byte) ([]byte, error) {
	if len(blob.Nonce) != NonceSize || len(blob.Tag) != TagSize {
		return nil, kerrors.ErrDecryptionFailed
	}

	aead, err := chacha20poly1305.NewX(key.b[:])
	if err != nil {
		return nil, kerrors.ErrDecryptionFailed
	}

	sealed := make([]byte, 0, len(blob.Ciphertext)+TagSize)
	sealed = append(sealed, blob.Ciphertext...)
	sealed = append(sealed, blob.Tag...)

	plaintext, err := aead.Open(nil, blob.Nonce, sealed, aad)
	if err != nil {
		return nil, kerrors.ErrDecryptionFailed
	}
	return plaintext, nil
}
