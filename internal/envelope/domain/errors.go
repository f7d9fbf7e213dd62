package domain

import (
	"github.com/allisson/envelope/internal/errors"
)

// Envelope codec error definitions.
//
// These are the only errors the codec returns to its callers. Detailed crypto and
// DEK failures are collapsed into them at the boundary; CauseCode keeps the finer
// cause for audit records.
var (
	// ErrMalformedEnvelope indicates the input is not base64, does not split into exactly
	// four fields or has a field that is not valid base64. It is detected before the
	// cipher ever runs.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrMalformedEnvelope = errors.Wrap(errors.ErrInvalidInput, "malformed envelope")

	// ErrDecryptionFailed is the single externally visible decryption failure. Unknown
	// DEK, unwrap failure and tag mismatch are intentionally indistinguishable.
	//
	// HTTP Status: 422 Unprocessable Entity
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrEncryptionFailed indicates the payload could not be encrypted.
	//
	// HTTP Status: 500 Internal Server Error
	ErrEncryptionFailed = errors.Wrap(errors.ErrInternal, "encryption failed")

	// ErrDekUnavailable indicates no active DEK could be obtained (KEK missing or DEK
	// generation failed).
	//
	// HTTP Status: 503 Service Unavailable
	ErrDekUnavailable = errors.Wrap(errors.ErrUnavailable, "dek unavailable")

	// ErrSourceUnreadable indicates the source file is missing or cannot be read.
	ErrSourceUnreadable = errors.Wrap(errors.ErrInvalidInput, "source file unreadable")

	// ErrMetadataMissing indicates the ".meta" sidecar of an encrypted file is absent.
	ErrMetadataMissing = errors.Wrap(errors.ErrNotFound, "metadata missing")

	// ErrMetadataInvalid indicates the sidecar is not JSON or lacks a required field.
	ErrMetadataInvalid = errors.Wrap(errors.ErrInvalidInput, "metadata invalid")

	// ErrMetadataWriteFailed indicates the sidecar could not be written. The ciphertext
	// file is removed when this happens.
	ErrMetadataWriteFailed = errors.Wrap(errors.ErrInternal, "metadata write failed")

	// ErrSameSourceAndDestination indicates a file operation was asked to write over its
	// own input. It is rejected before anything is read or written.
	ErrSameSourceAndDestination = errors.Wrap(errors.ErrInvalidInput, "source and destination are the same file")

	// ErrDestinationWriteFailed indicates the destination file could not be written.
	ErrDestinationWriteFailed = errors.Wrap(errors.ErrInternal, "destination write failed")
)
