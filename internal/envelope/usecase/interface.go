// Package usecase implements the envelope codec: authenticated encryption of strings
// and whole files with the active DEK, and decryption with the DEK named by the
// envelope or sidecar.
package usecase

import (
	"context"
)

// EnvelopeUseCase is the public encryption API.
//
// source identifies the calling application in audit records. Errors are the coarse
// envelope errors of envelopeDomain; detailed causes only reach the audit log, and
// neither key material nor DEK ids are ever included.
type EnvelopeUseCase interface {
	// EncryptString encrypts plaintext with the active DEK and returns the envelope
	// string. Returns ErrEncryptionFailed.
	EncryptString(ctx context.Context, plaintext []byte, source string) (string, error)

	// DecryptString decrypts an envelope string. Returns ErrMalformedEnvelope before
	// any cryptographic work, ErrDekUnavailable when the KEK is not loaded and
	// ErrDecryptionFailed for every other failure.
	DecryptString(ctx context.Context, envelope string, source string) ([]byte, error)

	// DecryptStringOrPassthrough returns value unchanged when it does not look like an
	// envelope, and otherwise behaves like DecryptString. It tolerates mixed
	// encrypted and legacy plaintext data and is not a security boundary.
	DecryptStringOrPassthrough(ctx context.Context, value string, source string) ([]byte, error)

	// EncryptFile encrypts srcPath into dstPath and writes the dstPath+".meta" sidecar.
	// Either both files are written or neither is left behind.
	EncryptFile(ctx context.Context, srcPath, dstPath, source string) error

	// DecryptFile decrypts srcPath, using its ".meta" sidecar, into dstPath. A failed
	// call never leaves a partial dstPath.
	DecryptFile(ctx context.Context, srcPath, dstPath, source string) error
}
