package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"

	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	apperrors "github.com/allisson/envelope/internal/errors"
)

// kekDerivationInfo binds derived wrapping keys to this use.
const kekDerivationInfo = "envelope/kek-wrapping-key/v1"

// KekLoaderService loads the KEK from configuration, optionally unwrapping it
// through a KMS keeper first.
type KekLoaderService struct {
	kmsService KMSService
}

// NewKekLoader creates a new KekLoaderService.
func NewKekLoader(kmsService KMSService) *KekLoaderService {
	return &KekLoaderService{kmsService: kmsService}
}

// Load decodes material into a Kek.
//
// With an empty kmsKeyURI the material is parsed as hex or raw bytes. With a URI the
// material must be the base64 KMS ciphertext of the KEK text, which is decrypted and
// then parsed the same way. Material that is not exactly 32 bytes is normalized to a
// 32-byte wrapping key with HKDF-SHA256 and a warning is returned.
func (l *KekLoaderService) Load(
	ctx context.Context,
	material, kmsKeyURI string,
) (*cryptoDomain.Kek, []string, error) {
	if strings.TrimSpace(material) == "" {
		return nil, nil, cryptoDomain.ErrKekNotConfigured
	}

	encodingOverride := cryptoDomain.KekEncoding("")
	if kmsKeyURI != "" {
		unwrapped, err := l.unwrapWithKMS(ctx, material, kmsKeyURI)
		if err != nil {
			return nil, nil, err
		}
		material = unwrapped
		encodingOverride = cryptoDomain.KekEncodingKMS
	}

	parsed, err := cryptoDomain.ParseKekMaterial(material)
	if err != nil {
		return nil, nil, err
	}
	defer cryptoDomain.Zero(parsed.Bytes)

	warnings := parsed.Warnings
	encoding := parsed.Encoding
	if encodingOverride != "" {
		encoding = encodingOverride
	}

	if len(parsed.Bytes) == cryptoDomain.KeySize {
		kek, err := cryptoDomain.NewKek(cryptoDomain.NewKey(parsed.Bytes), encoding, len(parsed.Bytes), false)
		return kek, warnings, err
	}

	derived, err := deriveWrappingKey(parsed.Bytes)
	if err != nil {
		return nil, nil, err
	}
	defer cryptoDomain.Zero(derived)

	warnings = append(warnings, "kek is not 32 bytes, deriving wrapping key with hkdf-sha256")
	kek, err := cryptoDomain.NewKek(cryptoDomain.NewKey(derived), encoding, len(parsed.Bytes), true)
	return kek, warnings, err
}

func (l *KekLoaderService) unwrapWithKMS(ctx context.Context, material, kmsKeyURI string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimSpace(material))
	if err != nil {
		return "", apperrors.Wrap(cryptoDomain.ErrKekUnavailable, "kms kek is not valid base64")
	}

	keeper, err := l.kmsService.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return "", apperrors.Wrap(cryptoDomain.ErrKekUnavailable, err.Error())
	}
	defer func() {
		_ = keeper.Close()
	}()

	plaintext, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return "", apperrors.Wrap(cryptoDomain.ErrKekUnavailable, "failed to decrypt kek with kms")
	}
	defer cryptoDomain.Zero(plaintext)

	return string(plaintext), nil
}

func deriveWrappingKey(material []byte) ([]byte, error) {
	reader := hkdf.New(sha256.New, material, nil, []byte(kekDerivationInfo))
	key := make([]byte, cryptoDomain.KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, apperrors.Wrap(cryptoDomain.ErrKekUnavailable, "failed to derive wrapping key")
	}
	return key, nil
}
