package domain

import (
	"fmt"
	"log/slog"
)

const redacted = "[REDACTED]"

// Key holds plaintext key material (a KEK or an unwrapped DEK).
//
// Key never renders its bytes through fmt, slog or encoding/json: every implicit
// conversion to text yields "[REDACTED]". The bytes are only reachable through an
// explicit Bytes call, which keeps "never log the key" visible at every use site.
type Key struct {
	b []byte
}

// NewKey copies b into a new Key.
func NewKey(b []byte) Key {
	buf := make([]byte, len(b))
	copy(buf, b)
	return Key{b: buf}
}

// Bytes returns the underlying key material. Callers must not retain or log it.
func (k Key) Bytes() []byte {
	return k.b
}

// Len returns the key length in bytes.
func (k Key) Len() int {
	return len(k.b)
}

// IsEmpty reports whether the key holds no material.
func (k Key) IsEmpty() bool {
	return len(k.b) == 0
}

// Zero overwrites the key material in place.
func (k Key) Zero() {
	Zero(k.b)
}

// Zero overwrites every buffer with zeros. Nil buffers are skipped.
func Zero(bufs ...[]byte) {
	for _, b := range bufs {
		clear(b)
	}
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return redacted
}

// GoString implements fmt.GoStringer.
func (k Key) GoString() string {
	return "domain.Key(" + redacted + ")"
}

// Format implements fmt.Formatter so %x, %s, %v and %q all stay redacted.
func (k Key) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(redacted))
}

// LogValue implements slog.LogValuer.
func (k Key) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

// MarshalJSON implements json.Marshaler.
func (k Key) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}
