// Package errors defines the error kinds shared by every domain. Domain packages wrap
// a kind into their own sentinels (ErrMalformedEnvelope is an ErrInvalidInput), and
// the HTTP layer maps kinds to status codes through KindOf.
package errors

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a concurrent update won the race (version mismatch).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates malformed or unauthenticated caller data, including
	// envelopes that fail to decrypt.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the request lacks valid admin credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the operation is not allowed in this deployment.
	ErrForbidden = errors.New("forbidden")

	// ErrUnavailable indicates required key material or storage is not usable.
	ErrUnavailable = errors.New("unavailable")

	// ErrInternal indicates an unexpected failure that must not leak details to callers.
	ErrInternal = errors.New("internal error")
)

var kinds = []error{
	ErrNotFound,
	ErrConflict,
	ErrInvalidInput,
	ErrUnauthorized,
	ErrForbidden,
	ErrUnavailable,
}

// KindOf returns the first error kind found in err's tree, ErrInternal when err
// carries none, and nil for a nil err.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrInternal
}

// New creates a sentinel error.
func New(message string) error {
	return errors.New(message)
}

// Wrap prefixes err with message, keeping err in the chain. A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
