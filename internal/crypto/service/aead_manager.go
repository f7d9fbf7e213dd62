package service

import (
	"crypto/rand"
	"io"

	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
)

// AEADManagerService implements the AEADManager interface for creating AEAD cipher instances.
type AEADManagerService struct {
	random io.Reader
}

// NewAEADManager creates a new AEADManagerService backed by crypto/rand.
func NewAEADManager() *AEADManagerService {
	return NewAEADManagerWithRandom(rand.Reader)
}

// NewAEADManagerWithRandom creates a new AEADManagerService whose ciphers draw
// nonces from random.
func NewAEADManagerWithRandom(random io.Reader) *AEADManagerService {
	return &AEADManagerService{random: random}
}

// CreateCipher creates an AEAD cipher instance for the specified algorithm.
// Returns ErrInvalidKeySize if key is not 32 bytes or ErrUnsupportedAlgorithm if algorithm is unknown.
func (am *AEADManagerService) CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	switch alg {
	case cryptoDomain.AESGCM:
		return NewAESGCMWithRandom(key, am.random)
	case cryptoDomain.ChaCha20:
		return NewChaCha20Poly1305WithRandom(key, am.random)
	default:
		return nil, cryptoDomain.ErrUnsupportedAlgorithm
	}
}

// Random returns the random source shared by the created ciphers.
func (am *AEADManagerService) Random() io.Reader {
	return am.random
}
