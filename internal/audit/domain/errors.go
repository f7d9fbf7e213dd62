package domain

import (
	"github.com/allisson/envelope/internal/errors"
)

var (
	// ErrAuditLogMalformed indicates the persisted audit log could not be decoded.
	ErrAuditLogMalformed = errors.Wrap(errors.ErrInternal, "audit log malformed")

	// ErrSignatureInvalid indicates an event signature did not verify.
	ErrSignatureInvalid = errors.Wrap(errors.ErrInvalidInput, "audit event signature invalid")

	// ErrSignatureMissing indicates an event was stored without a signature.
	ErrSignatureMissing = errors.Wrap(errors.ErrInvalidInput, "audit event signature missing")

	// ErrInvalidLimit indicates a list limit outside 1..MaxEntries.
	ErrInvalidLimit = errors.Wrap(errors.ErrInvalidInput, "limit must be between 1 and 200")
)
