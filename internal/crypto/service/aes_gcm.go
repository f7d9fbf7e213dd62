package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	apperrors "github.com/allisson/envelope/internal/errors"
)

// AESGCMCipher implements the AEAD interface using AES-256-GCM.
//
// Security properties:
//   - 256-bit key size
//   - 12-byte nonce, drawn from the configured random source for every call
//   - 16-byte authentication tag appended to the ciphertext
//
// The cipher instance is stateless and safe for concurrent use from multiple goroutines.
type AESGCMCipher struct {
	aead   cipher.AEAD
	random io.Reader
}

// NewAESGCM creates a new AES-256-GCM cipher using crypto/rand for nonces.
func NewAESGCM(key []byte) (*AESGCMCipher, error) {
	return NewAESGCMWithRandom(key, rand.Reader)
}

// NewAESGCMWithRandom creates a new AES-256-GCM cipher drawing nonces from random.
// The key must be exactly 32 bytes.
func NewAESGCMWithRandom(key []byte, random io.Reader) (*AESGCMCipher, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &AESGCMCipher{aead: aead, random: random}, nil
}

// Encrypt encrypts plaintext with optional additional authenticated data.
// The returned ciphertext has the 16-byte tag appended.
func (a *AESGCMCipher) Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, a.aead.NonceSize())
	if _, err := io.ReadFull(a.random, nonce); err != nil {
		return nil, nil, apperrors.Wrap(cryptoDomain.ErrRandomSource, err.Error())
	}

	ciphertext = a.aead.Seal(nil, nonce, plaintext, aad)
	return ciphertext, nonce, nil
}

// Decrypt authenticates and decrypts ciphertext (tag appended). On tag mismatch it
// returns ErrAuthenticationFailed and no plaintext.
func (a *AESGCMCipher) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	if len(nonce) != a.aead.NonceSize() {
		return nil, cryptoDomain.ErrInvalidIVLength
	}

	plaintext, err := a.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, cryptoDomain.ErrAuthenticationFailed
	}
	return plaintext, nil
}
