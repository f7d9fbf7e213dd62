package service

import (
	"time"

	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	apperrors "github.com/allisson/envelope/internal/errors"
)

// KeyManagerService wraps and unwraps DEKs with the KEK.
//
// DEKs are always wrapped with AES-256-GCM regardless of the data algorithm
// recorded on the DEK, and the wrap tag is stored separately from the wrapped key.
type KeyManagerService struct {
	cipher Cipher
}

// NewKeyManager creates a new KeyManagerService.
func NewKeyManager(cipher Cipher) *KeyManagerService {
	return &KeyManagerService{cipher: cipher}
}

// CreateDek generates a 32-byte DEK, wraps it with the KEK and returns both the
// record to persist and the plaintext key. The caller owns the plaintext key and
// must zero it when done.
func (km *KeyManagerService) CreateDek(
	kek *cryptoDomain.Kek,
	alg cryptoDomain.Algorithm,
) (*cryptoDomain.WrappedDek, cryptoDomain.Key, error) {
	if kek == nil {
		return nil, cryptoDomain.Key{}, cryptoDomain.ErrKekUnavailable
	}
	if _, err := cryptoDomain.ParseAlgorithm(string(alg)); err != nil {
		return nil, cryptoDomain.Key{}, err
	}

	id, err := cryptoDomain.NewDekID()
	if err != nil {
		return nil, cryptoDomain.Key{}, err
	}

	dekKey, err := km.cipher.GenerateKey(cryptoDomain.KeySize)
	if err != nil {
		return nil, cryptoDomain.Key{}, err
	}

	encryptedKey, nonce, tag, err := km.cipher.Encrypt(dekKey.Bytes(), kek.Key(), cryptoDomain.AESGCM)
	if err != nil {
		dekKey.Zero()
		return nil, cryptoDomain.Key{}, apperrors.Wrap(err, "failed to wrap dek")
	}

	dek := &cryptoDomain.WrappedDek{
		ID:           id,
		Algorithm:    alg,
		EncryptedKey: encryptedKey,
		Nonce:        nonce,
		Tag:          tag,
		CreatedAt:    time.Now().UTC(),
	}

	return dek, dekKey, nil
}

// DecryptDek unwraps a DEK. Any failure, including a KEK mismatch, returns
// ErrDekUnwrapFailed.
func (km *KeyManagerService) DecryptDek(
	dek *cryptoDomain.WrappedDek,
	kek *cryptoDomain.Kek,
) (cryptoDomain.Key, error) {
	if kek == nil {
		return cryptoDomain.Key{}, cryptoDomain.ErrKekUnavailable
	}

	plain, err := km.cipher.Decrypt(dek.EncryptedKey, kek.Key(), dek.Nonce, dek.Tag, cryptoDomain.AESGCM)
	if err != nil {
		return cryptoDomain.Key{}, apperrors.Wrap(cryptoDomain.ErrDekUnwrapFailed, err.Error())
	}
	if len(plain) != cryptoDomain.KeySize {
		cryptoDomain.Zero(plain)
		return cryptoDomain.Key{}, cryptoDomain.ErrDekUnwrapFailed
	}

	key := cryptoDomain.NewKey(plain)
	cryptoDomain.Zero(plain)
	return key, nil
}
