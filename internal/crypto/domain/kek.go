// Package domain defines the core cryptographic domain models for envelope encryption.
//
// A single long-lived Key Encryption Key (KEK) wraps rotating Data Encryption Keys
// (DEKs); DEKs encrypt application data. Only wrapped DEKs are ever persisted and the
// KEK itself never leaves process memory.
package domain

import (
	"encoding/hex"
	"strings"
)

// KekEncoding describes how the configured KEK text was interpreted.
type KekEncoding string

const (
	// KekEncodingHex means the configured value was an even-length hex string.
	KekEncodingHex KekEncoding = "hex"

	// KekEncodingRaw means the configured value was used as raw bytes.
	KekEncodingRaw KekEncoding = "raw"

	// KekEncodingKMS means the configured value was KMS ciphertext unwrapped at startup.
	KekEncodingKMS KekEncoding = "kms"
)

// Kek is the loaded Key Encryption Key. It is immutable for the process lifetime.
type Kek struct {
	key Key

	// Encoding records how the configured material was decoded.
	Encoding KekEncoding
	// MaterialLength is the length in bytes of the decoded material before any
	// normalization to a 32-byte wrapping key.
	MaterialLength int
	// Derived is true when the wrapping key was derived from material whose length
	// was not exactly 32 bytes.
	Derived bool
}

// NewKek builds a Kek from a 32-byte wrapping key.
func NewKek(key Key, encoding KekEncoding, materialLength int, derived bool) (*Kek, error) {
	if key.Len() != KeySize {
		return nil, ErrInvalidKeySize
	}
	return &Kek{
		key:            key,
		Encoding:       encoding,
		MaterialLength: materialLength,
		Derived:        derived,
	}, nil
}

// Key returns the wrapping key.
func (k *Kek) Key() Key {
	return k.key
}

// Close zeroes the wrapping key.
func (k *Kek) Close() {
	k.key.Zero()
}

// KekMaterial is the result of decoding configured KEK text.
type KekMaterial struct {
	Bytes    []byte
	Encoding KekEncoding
	Warnings []string
}

// ParseKekMaterial decodes configured KEK text.
//
// An even-length string made only of hex digits, ignoring surrounding whitespace, is
// hex-decoded; anything else is used as raw bytes exactly as given, with a warning.
// Material shorter than 32 bytes produces a warning but is still accepted. Empty or
// whitespace-only input returns ErrKekNotConfigured.
func ParseKekMaterial(value string) (*KekMaterial, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, ErrKekNotConfigured
	}

	material := &KekMaterial{}
	if isHex(trimmed) {
		decoded, err := hex.DecodeString(trimmed)
		if err != nil {
			return nil, err
		}
		material.Bytes = decoded
		material.Encoding = KekEncodingHex
	} else {
		material.Bytes = []byte(value)
		material.Encoding = KekEncodingRaw
		material.Warnings = append(material.Warnings, "kek is not hex encoded, using raw bytes")
	}

	if len(material.Bytes) < KeySize {
		material.Warnings = append(material.Warnings, "kek is shorter than 32 bytes")
	}

	return material, nil
}

func isHex(value string) bool {
	if len(value)%2 != 0 {
		return false
	}
	for _, c := range value {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
