// Package service provides tamper evidence for audit events.
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"golang.org/x/crypto/hkdf"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
)

// signingInfo is the HKDF info string for the audit signing key.
const signingInfo = "envelope/audit-event-signing/v1"

// EventSigner signs and verifies audit events.
type EventSigner interface {
	Sign(event *auditDomain.Event) ([]byte, error)
	Verify(event *auditDomain.Event) error
}

// HMACEventSigner signs events with HMAC-SHA256 using a key derived from the KEK via
// HKDF-SHA256, so the KEK itself never touches the MAC.
type HMACEventSigner struct {
	signingKey []byte
}

// NewHMACEventSigner derives the signing key from the KEK.
func NewHMACEventSigner(kek *cryptoDomain.Kek) (*HMACEventSigner, error) {
	if kek == nil {
		return nil, cryptoDomain.ErrKekUnavailable
	}

	reader := hkdf.New(sha256.New, kek.Key().Bytes(), nil, []byte(signingInfo))
	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(reader, signingKey); err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}

	return &HMACEventSigner{signingKey: signingKey}, nil
}

// Sign returns the HMAC of the event's canonical form.
func (s *HMACEventSigner) Sign(event *auditDomain.Event) ([]byte, error) {
	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write(canonicalize(event))
	return mac.Sum(nil), nil
}

// Verify checks the stored signature in constant time.
func (s *HMACEventSigner) Verify(event *auditDomain.Event) error {
	if len(event.Signature) == 0 {
		return auditDomain.ErrSignatureMissing
	}

	expected, err := s.Sign(event)
	if err != nil {
		return err
	}
	if !hmac.Equal(event.Signature, expected) {
		return auditDomain.ErrSignatureInvalid
	}
	return nil
}

// Close zeroes the signing key.
func (s *HMACEventSigner) Close() {
	cryptoDomain.Zero(s.signingKey)
}

// canonicalize produces an unambiguous byte encoding: length-prefixed fields, details
// sorted by key, timestamp as unix nanoseconds.
func canonicalize(event *auditDomain.Event) []byte {
	buf := make([]byte, 0, 256)

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(event.Timestamp.UnixNano()))
	buf = append(buf, ts...)

	buf = appendLengthPrefixed(buf, []byte(event.Action))
	buf = appendLengthPrefixed(buf, []byte(event.Source))
	buf = appendLengthPrefixed(buf, []byte(event.Target))

	keys := make([]string, 0, len(event.Details))
	for k := range event.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	count := make([]byte, 4)
	binary.BigEndian.PutUint32(count, uint32(len(keys)))
	buf = append(buf, count...)
	for _, k := range keys {
		buf = appendLengthPrefixed(buf, []byte(k))
		buf = appendLengthPrefixed(buf, []byte(event.Details[k]))
	}

	return buf
}

func appendLengthPrefixed(buf, data []byte) []byte {
	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))
	buf = append(buf, length...)
	return append(buf, data...)
}
