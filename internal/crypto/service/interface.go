// Package service provides the cryptographic building blocks of envelope encryption:
// AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305), the detached-tag cipher primitive,
// DEK wrapping with the KEK, KEK loading and KMS access.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext (tag appended) and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext (tag appended) using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// Cipher is the stateless encrypt/decrypt primitive with a detached IV and tag.
type Cipher interface {
	// Encrypt encrypts plaintext with a fresh random IV and no associated data.
	Encrypt(
		plaintext []byte,
		key cryptoDomain.Key,
		alg cryptoDomain.Algorithm,
	) (ciphertext, iv, tag []byte, err error)

	// Decrypt validates IV and tag lengths, then authenticates and decrypts.
	Decrypt(
		ciphertext []byte,
		key cryptoDomain.Key,
		iv, tag []byte,
		alg cryptoDomain.Algorithm,
	) ([]byte, error)

	// GenerateKey returns length bytes from the secure random source.
	GenerateKey(length int) (cryptoDomain.Key, error)
}

// KeyManager defines the interface for wrapping and unwrapping DEKs with the KEK.
type KeyManager interface {
	// CreateDek generates a new DEK and returns it wrapped with the KEK along with
	// the plaintext key. Callers must zero the plaintext key after use.
	CreateDek(
		kek *cryptoDomain.Kek,
		alg cryptoDomain.Algorithm,
	) (*cryptoDomain.WrappedDek, cryptoDomain.Key, error)

	// DecryptDek unwraps a DEK with the KEK.
	DecryptDek(dek *cryptoDomain.WrappedDek, kek *cryptoDomain.Kek) (cryptoDomain.Key, error)
}

// KekLoader turns configured KEK material into a loaded Kek.
type KekLoader interface {
	// Load decodes (and, with a KMS key URI, unwraps) material into a 32-byte KEK.
	// The returned warnings describe non-fatal issues with the material.
	Load(ctx context.Context, material, kmsKeyURI string) (*cryptoDomain.Kek, []string, error)
}
