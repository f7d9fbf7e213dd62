// Package domain defines the envelope wire formats: the self-describing string
// envelope and the sidecar metadata of encrypted files.
package domain

import (
	"encoding/base64"
	"strings"

	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	"github.com/allisson/envelope/internal/errors"
)

const envelopeSeparator = ":"

// Envelope binds a ciphertext to the DEK that produced it.
//
// The string form is base64(dek_id ":" base64(iv) ":" base64(ciphertext) ":" base64(tag)),
// all standard padded base64.
type Envelope struct {
	DekID      cryptoDomain.DekID
	IV         []byte
	Ciphertext []byte
	Tag        []byte
}

// Encode returns the string form of the envelope.
func (e *Envelope) Encode() string {
	payload := strings.Join([]string{
		e.DekID.Value(),
		base64.StdEncoding.EncodeToString(e.IV),
		base64.StdEncoding.EncodeToString(e.Ciphertext),
		base64.StdEncoding.EncodeToString(e.Tag),
	}, envelopeSeparator)
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

// ParseEnvelope decodes the string form. Any structural problem returns
// ErrMalformedEnvelope; lengths are validated later by the cipher.
func ParseEnvelope(value string) (*Envelope, error) {
	payload, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedEnvelope, "invalid base64")
	}

	parts := strings.Split(string(payload), envelopeSeparator)
	if len(parts) != 4 {
		return nil, errors.Wrap(ErrMalformedEnvelope, "invalid field count")
	}

	id, err := cryptoDomain.ParseDekID(parts[0])
	if err != nil {
		return nil, errors.Wrap(ErrMalformedEnvelope, "invalid dek id")
	}

	fields := make([][]byte, 3)
	for i, part := range parts[1:] {
		decoded, err := base64.StdEncoding.DecodeString(part)
		if err != nil {
			return nil, errors.Wrap(ErrMalformedEnvelope, "invalid field encoding")
		}
		fields[i] = decoded
	}

	return &Envelope{
		DekID:      id,
		IV:         fields[0],
		Ciphertext: fields[1],
		Tag:        fields[2],
	}, nil
}

// LooksLikeEnvelope reports whether value is base64 text whose decoded form contains
// the field separator. It is the cheap check used to pass legacy plaintext through
// unchanged; a true result does not guarantee ParseEnvelope succeeds.
func LooksLikeEnvelope(value string) bool {
	payload, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return false
	}
	return strings.Contains(string(payload), envelopeSeparator)
}
