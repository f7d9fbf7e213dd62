package service

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"

	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	apperrors "github.com/allisson/envelope/internal/errors"
)

// ChaCha20Poly1305Cipher implements the AEAD interface using ChaCha20-Poly1305.
//
// ChaCha20-Poly1305 runs in constant time in software, which makes it the better
// choice on hosts without AES hardware acceleration. It shares the 12-byte nonce and
// 16-byte tag of AES-GCM, so envelopes have the same shape for both algorithms.
type ChaCha20Poly1305Cipher struct {
	aead   cipher.AEAD
	random io.Reader
}

// NewChaCha20Poly1305 creates a new ChaCha20-Poly1305 cipher using crypto/rand for nonces.
func NewChaCha20Poly1305(key []byte) (*ChaCha20Poly1305Cipher, error) {
	return NewChaCha20Poly1305WithRandom(key, rand.Reader)
}

// NewChaCha20Poly1305WithRandom creates a new ChaCha20-Poly1305 cipher drawing nonces from random.
func NewChaCha20Poly1305WithRandom(key []byte, random io.Reader) (*ChaCha20Poly1305Cipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}

	return &ChaCha20Poly1305Cipher{aead: aead, random: random}, nil
}

// Encrypt encrypts plaintext with optional additional authenticated data.
func (c *ChaCha20Poly1305Cipher) Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return nil, nil, apperrors.Wrap(cryptoDomain.ErrRandomSource, err.Error())
	}

	ciphertext = c.aead.Seal(nil, nonce, plaintext, aad)
	return ciphertext, nonce, nil
}

// Decrypt authenticates and decrypts ciphertext (tag appended).
func (c *ChaCha20Poly1305Cipher) Decrypt(ciphertext, nonce, aad []byte) ([]byte, error) {
	if len(nonce) != c.aead.NonceSize() {
		return nil, cryptoDomain.ErrInvalidIVLength
	}

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, cryptoDomain.ErrAuthenticationFailed
	}
	return plaintext, nil
}
