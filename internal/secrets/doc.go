// Package secrets provides the key derivation and encryption engine for
// Backpack agent containers.
//
// # Key Derivation
//
// The master key (usually AGENT_MASTER_KEY) is stretched into a 256-bit
// symmetric key with PBKDF2-HMAC-SHA256:
//
//   - Iterations: 100000 (KDFIterations)
//   - Salt: 16 random bytes, generated once per container and stored in it
//   - Output: 32 bytes (KeySize)
//
// The key is derived once per operation and used for every layer of the
// container. It is never written anywhere.
//
// # Encryption
//
// Each layer is sealed independently with XChaCha20-Poly1305 using a fresh
// random 24-byte nonce. The caller supplies additional authenticated data
// naming the layer, so a blob copied into a different layer slot fails to
// open. The Poly1305 tag is kept separate from the ciphertext in
// EncryptedBlob so the on-disk shape is explicit.
//
// # Failure Reporting
//
// Decrypt returns ErrDecryptionFailed for every failure: wrong key, flipped
// ciphertext byte, flipped tag byte, truncated nonce. Callers cannot and
// should not tell them apart.
//
// # Master Key Resolution
//
// ResolveMasterKey turns the process environment into a MasterKey value
// exactly once per command. Everything downstream receives that value as an
// argument rather than reading the environment itself.
package secrets
