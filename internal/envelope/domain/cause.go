package domain

import (
	"context"

	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	"github.com/allisson/envelope/internal/errors"
)

// Cause codes recorded in audit details. They name the internal failure without
// revealing key material or which DEK was involved.
const (
	CauseKekUnavailable       = "kek_unavailable"
	CauseDekNotFound          = "dek_not_found"
	CauseDekUnwrapFailed      = "dek_unwrap_failed"
	CauseDekGenerationFailed  = "dek_generation_failed"
	CauseAuthenticationFailed = "authentication_failed"
	CauseInvalidIVLength      = "invalid_iv_length"
	CauseInvalidTagLength     = "invalid_tag_length"
	CauseUnsupportedAlgorithm = "unsupported_algorithm"
	CauseRandomSource         = "random_source"
	CauseMalformedEnvelope    = "malformed_envelope"
	CauseSourceUnreadable     = "source_unreadable"
	CauseMetadataMissing      = "metadata_missing"
	CauseMetadataInvalid      = "metadata_invalid"
	CauseMetadataWriteFailed  = "metadata_write_failed"
	CauseDestinationWrite     = "destination_write_failed"
	CauseSamePath             = "same_path"
	CauseCancelled            = "cancelled"
	CausePersistence          = "persistence_error"
	CauseUnknown              = "unknown"
)

var causes = []struct {
	err  error
	code string
}{
	{cryptoDomain.ErrKekUnavailable, CauseKekUnavailable},
	{cryptoDomain.ErrKekNotConfigured, CauseKekUnavailable},
	{cryptoDomain.ErrDekNotFound, CauseDekNotFound},
	{cryptoDomain.ErrDekUnwrapFailed, CauseDekUnwrapFailed},
	{cryptoDomain.ErrDekGenerationFailed, CauseDekGenerationFailed},
	{cryptoDomain.ErrAuthenticationFailed, CauseAuthenticationFailed},
	{cryptoDomain.ErrInvalidIVLength, CauseInvalidIVLength},
	{cryptoDomain.ErrInvalidTagLength, CauseInvalidTagLength},
	{cryptoDomain.ErrUnsupportedAlgorithm, CauseUnsupportedAlgorithm},
	{cryptoDomain.ErrRandomSource, CauseRandomSource},
	{ErrMalformedEnvelope, CauseMalformedEnvelope},
	{ErrSourceUnreadable, CauseSourceUnreadable},
	{ErrMetadataMissing, CauseMetadataMissing},
	{ErrMetadataInvalid, CauseMetadataInvalid},
	{ErrMetadataWriteFailed, CauseMetadataWriteFailed},
	{ErrDestinationWriteFailed, CauseDestinationWrite},
	{ErrSameSourceAndDestination, CauseSamePath},
	{context.Canceled, CauseCancelled},
	{context.DeadlineExceeded, CauseCancelled},
}

// CauseCode maps a detailed internal error to an audit-safe cause code.
func CauseCode(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range causes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	if errors.Is(err, errors.ErrConflict) || errors.Is(err, errors.ErrNotFound) {
		return CausePersistence
	}
	return CauseUnknown
}
