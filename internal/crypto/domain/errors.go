package domain

import (
	"github.com/allisson/envelope/internal/errors"
)

// Cryptographic and DEK lifecycle error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors so the
// HTTP layer can map them to status codes. They are the detailed, internal
// taxonomy: the envelope codec collapses most of them into a single
// externally visible failure before they reach a caller.
var (
	// ErrUnsupportedAlgorithm indicates the requested AEAD algorithm is not available.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates a key is not exactly 32 bytes.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrInvalidIVLength indicates the IV passed to decrypt is not 12 bytes.
	// Checked before the cipher runs.
	ErrInvalidIVLength = errors.Wrap(errors.ErrInvalidInput, "invalid iv length")

	// ErrInvalidTagLength indicates the tag passed to decrypt is not 16 bytes.
	// Checked before the cipher runs.
	ErrInvalidTagLength = errors.Wrap(errors.ErrInvalidInput, "invalid tag length")

	// ErrAuthenticationFailed indicates the tag did not verify: wrong key, corrupted
	// ciphertext or tampering. No plaintext is ever returned alongside it.
	ErrAuthenticationFailed = errors.Wrap(errors.ErrInvalidInput, "authentication failed")

	// ErrRandomSource indicates the secure random source failed to produce bytes.
	//
	// HTTP Status: 500 Internal Server Error
	ErrRandomSource = errors.Wrap(errors.ErrInternal, "secure random source failure")

	// ErrKekNotConfigured indicates no KEK material was supplied in configuration.
	ErrKekNotConfigured = errors.Wrap(errors.ErrUnavailable, "kek not configured")

	// ErrKekUnavailable indicates an operation needed the KEK but none is loaded.
	//
	// HTTP Status: 503 Service Unavailable
	ErrKekUnavailable = errors.Wrap(errors.ErrUnavailable, "kek unavailable")

	// ErrDekNotFound indicates the DEK id is not present in the store.
	//
	// HTTP Status: 404 Not Found
	ErrDekNotFound = errors.Wrap(errors.ErrNotFound, "dek not found")

	// ErrDekAlreadyExists indicates a generated DEK id collided with an existing record.
	ErrDekAlreadyExists = errors.Wrap(errors.ErrConflict, "dek already exists")

	// ErrDekUnwrapFailed indicates a stored DEK record could not be unwrapped with the
	// loaded KEK. Usually a KEK mismatch or a corrupted record.
	ErrDekUnwrapFailed = errors.Wrap(errors.ErrInternal, "dek unwrap failed")

	// ErrDekGenerationFailed indicates a new DEK could not be generated, wrapped or
	// persisted. The persisted store is left untouched.
	ErrDekGenerationFailed = errors.Wrap(errors.ErrInternal, "dek generation failed")

	// ErrDekStoreMalformed indicates the persisted DEK store could not be decoded.
	ErrDekStoreMalformed = errors.Wrap(errors.ErrInternal, "dek store malformed")

	// ErrActiveDekRetained indicates a prune request targeted the active DEK.
	ErrActiveDekRetained = errors.Wrap(errors.ErrConflict, "active dek cannot be pruned")
)
