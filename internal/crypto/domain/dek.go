package domain

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/envelope/internal/errors"
)

// DekID identifies a DEK for the lifetime of the store.
//
// Like Key, a DekID redacts itself when formatted or logged so that a log line can
// never reveal which key protected a given payload. The raw identifier is only
// available through Value, used by persistence and by the envelope wire format.
type DekID struct {
	value string
}

// NewDekID generates a new unique identifier ("dek_" + UUIDv7).
func NewDekID() (DekID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return DekID{}, errors.Wrap(ErrRandomSource, err.Error())
	}
	return DekID{value: DekIDPrefix + id.String()}, nil
}

// ParseDekID validates and wraps a raw identifier read from an envelope or a store.
// Any non-empty string without ':' is accepted so ids from older stores remain usable.
func ParseDekID(value string) (DekID, error) {
	if value == "" || strings.ContainsAny(value, ": \t\r\n") {
		return DekID{}, errors.Wrap(errors.ErrInvalidInput, "invalid dek id")
	}
	return DekID{value: value}, nil
}

// Value returns the raw identifier. Use only for persistence and wire encoding.
func (d DekID) Value() string {
	return d.value
}

// IsZero reports whether the id is unset.
func (d DekID) IsZero() bool {
	return d.value == ""
}

// String implements fmt.Stringer.
func (d DekID) String() string {
	if d.value == "" {
		return ""
	}
	return DekIDPrefix + redacted
}

// Format implements fmt.Formatter.
func (d DekID) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(d.String()))
}

// LogValue implements slog.LogValuer.
func (d DekID) LogValue() slog.Value {
	return slog.StringValue(d.String())
}

// WrappedDek is a DEK as persisted: the 32-byte key encrypted with the KEK.
// The plaintext DEK is never stored and callers must zero it after use.
type WrappedDek struct {
	ID           DekID
	Algorithm    Algorithm // data algorithm used with this DEK
	EncryptedKey []byte    // wrapped DEK bytes (without tag)
	Nonce        []byte    // wrap IV
	Tag          []byte    // wrap authentication tag
	CreatedAt    time.Time
}

// DekInfo is the non-sensitive view of a DEK used for admin listings.
type DekInfo struct {
	ID        DekID
	Algorithm Algorithm
	CreatedAt time.Time
	Active    bool
}

// Dek is an unwrapped DEK ready to encrypt or decrypt data. It exists only for the
// duration of one operation; callers must Zero it when done.
type Dek struct {
	ID        DekID
	Algorithm Algorithm
	Key       Key
}

// Zero overwrites the plaintext key.
func (d *Dek) Zero() {
	if d != nil {
		d.Key.Zero()
	}
}
