package service

import (
	"crypto/rand"
	"io"

	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	apperrors "github.com/allisson/envelope/internal/errors"
)

// CipherService is the data encryption primitive used by the envelope codec.
//
// It splits the authentication tag from the ciphertext so the tag can be carried as
// its own envelope field, and it never touches persistence or logging.
type CipherService struct {
	aeadManager AEADManager
	random      io.Reader
}

// NewCipherService creates a CipherService. A nil random source defaults to crypto/rand.
func NewCipherService(aeadManager AEADManager, random io.Reader) *CipherService {
	if random == nil {
		random = rand.Reader
	}
	return &CipherService{aeadManager: aeadManager, random: random}
}

// Encrypt encrypts plaintext with a fresh 12-byte IV and returns the ciphertext and
// the 16-byte tag separately.
func (c *CipherService) Encrypt(
	plaintext []byte,
	key cryptoDomain.Key,
	alg cryptoDomain.Algorithm,
) (ciphertext, iv, tag []byte, err error) {
	aead, err := c.aeadManager.CreateCipher(key.Bytes(), alg)
	if err != nil {
		return nil, nil, nil, err
	}

	sealed, iv, err := aead.Encrypt(plaintext, nil)
	if err != nil {
		return nil, nil, nil, err
	}

	split := len(sealed) - cryptoDomain.TagSize
	return sealed[:split], iv, sealed[split:], nil
}

// Decrypt checks the IV and tag lengths before the cipher runs, then authenticates
// and decrypts. A tag mismatch yields ErrAuthenticationFailed and no plaintext.
func (c *CipherService) Decrypt(
	ciphertext []byte,
	key cryptoDomain.Key,
	iv, tag []byte,
	alg cryptoDomain.Algorithm,
) ([]byte, error) {
	if len(iv) != cryptoDomain.IVSize {
		return nil, cryptoDomain.ErrInvalidIVLength
	}
	if len(tag) != cryptoDomain.TagSize {
		return nil, cryptoDomain.ErrInvalidTagLength
	}

	aead, err := c.aeadManager.CreateCipher(key.Bytes(), alg)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	return aead.Decrypt(sealed, iv, nil)
}

// GenerateKey returns a new key of length bytes.
func (c *CipherService) GenerateKey(length int) (cryptoDomain.Key, error) {
	if length <= 0 {
		return cryptoDomain.Key{}, cryptoDomain.ErrInvalidKeySize
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(c.random, buf); err != nil {
		return cryptoDomain.Key{}, apperrors.Wrap(cryptoDomain.ErrRandomSource, err.Error())
	}

	key := cryptoDomain.NewKey(buf)
	cryptoDomain.Zero(buf)
	return key, nil
}
