package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	auditUseCase "github.com/allisson/envelope/internal/audit/usecase"
	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	cryptoService "github.com/allisson/envelope/internal/crypto/service"
	cryptoUseCase "github.com/allisson/envelope/internal/crypto/usecase"
	envelopeDomain "github.com/allisson/envelope/internal/envelope/domain"
	apperrors "github.com/allisson/envelope/internal/errors"
	"github.com/allisson/envelope/internal/fsutil"
)

const filePerm os.FileMode = 0o600

type envelopeUseCase struct {
	dekUseCase cryptoUseCase.DekUseCase
	cipher     cryptoService.Cipher
	auditLog   auditUseCase.AuditLogUseCase
	logger     *slog.Logger
	now        func() time.Time
}

// NewEnvelopeUseCase creates a new EnvelopeUseCase.
func NewEnvelopeUseCase(
	dekUseCase cryptoUseCase.DekUseCase,
	cipher cryptoService.Cipher,
	auditLog auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
) EnvelopeUseCase {
	return &envelopeUseCase{
		dekUseCase: dekUseCase,
		cipher:     cipher,
		auditLog:   auditLog,
		logger:     logger,
		now:        time.Now,
	}
}

// EncryptString encrypts plaintext into an envelope string.
func (e *envelopeUseCase) EncryptString(ctx context.Context, plaintext []byte, source string) (string, error) {
	e.auditLog.Log(ctx, auditDomain.ActionEncryptRequestReceived, source, auditDomain.TargetString, nil)

	dek, err := e.dekUseCase.GetActiveDek(ctx)
	if err != nil {
		return "", e.fail(ctx, auditDomain.ActionEncryptFailed, source, auditDomain.TargetString, nil,
			err, envelopeDomain.ErrEncryptionFailed)
	}
	defer dek.Zero()

	ciphertext, iv, tag, err := e.cipher.Encrypt(plaintext, dek.Key, dek.Algorithm)
	if err != nil {
		return "", e.fail(ctx, auditDomain.ActionEncryptFailed, source, auditDomain.TargetString, nil,
			err, envelopeDomain.ErrEncryptionFailed)
	}

	env := &envelopeDomain.Envelope{DekID: dek.ID, IV: iv, Ciphertext: ciphertext, Tag: tag}

	e.auditLog.Log(ctx, auditDomain.ActionEncryptRequestProcessed, source, auditDomain.TargetString, nil)
	return env.Encode(), nil
}

// DecryptString decrypts an envelope string.
func (e *envelopeUseCase) DecryptString(ctx context.Context, envelope string, source string) ([]byte, error) {
	e.auditLog.Log(ctx, auditDomain.ActionDecryptRequestReceived, source, auditDomain.TargetString, nil)

	env, err := envelopeDomain.ParseEnvelope(envelope)
	if err != nil {
		return nil, e.fail(ctx, auditDomain.ActionDecryptFailed, source, auditDomain.TargetString, nil,
			err, envelopeDomain.ErrMalformedEnvelope)
	}

	plaintext, err := e.open(ctx, env.DekID, env.Ciphertext, env.IV, env.Tag)
	if err != nil {
		return nil, e.fail(ctx, auditDomain.ActionDecryptFailed, source, auditDomain.TargetString, nil,
			err, decryptError(err))
	}

	e.auditLog.Log(ctx, auditDomain.ActionDecryptRequestProcessed, source, auditDomain.TargetString, nil)
	return plaintext, nil
}

// DecryptStringOrPassthrough decrypts value when it looks like an envelope.
func (e *envelopeUseCase) DecryptStringOrPassthrough(
	ctx context.Context,
	value string,
	source string,
) ([]byte, error) {
	if !envelopeDomain.LooksLikeEnvelope(value) {
		e.auditLog.Log(ctx, auditDomain.ActionDecryptAttemptSkipped, source, auditDomain.TargetString,
			map[string]string{"reason": "invalid_format"})
		return []byte(value), nil
	}
	return e.DecryptString(ctx, value, source)
}

// EncryptFile encrypts a whole file in memory and writes the ciphertext and sidecar.
func (e *envelopeUseCase) EncryptFile(ctx context.Context, srcPath, dstPath, source string) error {
	details := map[string]string{"file": filepath.Base(srcPath)}
	e.auditLog.Log(ctx, auditDomain.ActionEncryptRequestReceived, source, auditDomain.TargetFile, details)

	if err := ctx.Err(); err != nil {
		return e.fail(ctx, auditDomain.ActionEncryptFailed, source, auditDomain.TargetFile, details, err, err)
	}
	if sameFile(srcPath, dstPath) {
		return e.fail(ctx, auditDomain.ActionEncryptFailed, source, auditDomain.TargetFile, details,
			envelopeDomain.ErrSameSourceAndDestination, envelopeDomain.ErrSameSourceAndDestination)
	}

	plaintext, err := os.ReadFile(srcPath) //nolint:gosec
	if err != nil {
		return e.fail(ctx, auditDomain.ActionEncryptFailed, source, auditDomain.TargetFile, details,
			apperrors.Wrap(envelopeDomain.ErrSourceUnreadable, err.Error()), envelopeDomain.ErrSourceUnreadable)
	}
	defer cryptoDomain.Zero(plaintext)

	dek, err := e.dekUseCase.GetActiveDek(ctx)
	if err != nil {
		return e.fail(ctx, auditDomain.ActionEncryptFailed, source, auditDomain.TargetFile, details,
			err, envelopeDomain.ErrDekUnavailable)
	}
	defer dek.Zero()

	ciphertext, iv, tag, err := e.cipher.Encrypt(plaintext, dek.Key, dek.Algorithm)
	if err != nil {
		return e.fail(ctx, auditDomain.ActionEncryptFailed, source, auditDomain.TargetFile, details,
			err, envelopeDomain.ErrEncryptionFailed)
	}

	if err := fsutil.WriteFileAtomic(dstPath, ciphertext, filePerm); err != nil {
		return e.fail(ctx, auditDomain.ActionEncryptFailed, source, auditDomain.TargetFile, details,
			apperrors.Wrap(envelopeDomain.ErrDestinationWriteFailed, err.Error()),
			envelopeDomain.ErrDestinationWriteFailed)
	}

	meta := envelopeDomain.FileMetadata{
		DekID:        dek.ID,
		IV:           iv,
		Tag:          tag,
		OrigFilename: filepath.Base(srcPath),
		EncryptedAt:  e.now().UTC(),
	}
	if err := e.writeMetadata(dstPath, meta); err != nil {
		// Without its sidecar the ciphertext can never be decrypted.
		if rmErr := os.Remove(dstPath); rmErr != nil && !os.IsNotExist(rmErr) {
			e.logger.Error("failed to remove ciphertext after metadata failure",
				slog.String("file", filepath.Base(dstPath)),
				slog.Any("error", rmErr),
			)
		}
		return e.fail(ctx, auditDomain.ActionEncryptFailed, source, auditDomain.TargetFile, details,
			apperrors.Wrap(envelopeDomain.ErrMetadataWriteFailed, err.Error()),
			envelopeDomain.ErrMetadataWriteFailed)
	}

	e.auditLog.Log(ctx, auditDomain.ActionEncryptRequestProcessed, source, auditDomain.TargetFile,
		map[string]string{"file": filepath.Base(srcPath), "dest": filepath.Base(dstPath)})
	return nil
}

// DecryptFile decrypts an encrypted file using its sidecar.
func (e *envelopeUseCase) DecryptFile(ctx context.Context, srcPath, dstPath, source string) error {
	details := map[string]string{"file": filepath.Base(srcPath)}
	e.auditLog.Log(ctx, auditDomain.ActionDecryptRequestReceived, source, auditDomain.TargetFile, details)

	if err := ctx.Err(); err != nil {
		return e.fail(ctx, auditDomain.ActionDecryptFailed, source, auditDomain.TargetFile, details, err, err)
	}
	if sameFile(srcPath, dstPath) {
		return e.fail(ctx, auditDomain.ActionDecryptFailed, source, auditDomain.TargetFile, details,
			envelopeDomain.ErrSameSourceAndDestination, envelopeDomain.ErrSameSourceAndDestination)
	}

	ciphertext, err := os.ReadFile(srcPath) //nolint:gosec
	if err != nil {
		return e.fail(ctx, auditDomain.ActionDecryptFailed, source, auditDomain.TargetFile, details,
			apperrors.Wrap(envelopeDomain.ErrSourceUnreadable, err.Error()), envelopeDomain.ErrSourceUnreadable)
	}

	rawMeta, err := os.ReadFile(envelopeDomain.MetadataPath(srcPath)) //nolint:gosec
	if err != nil {
		return e.fail(ctx, auditDomain.ActionDecryptFailed, source, auditDomain.TargetFile, details,
			apperrors.Wrap(envelopeDomain.ErrMetadataMissing, err.Error()), envelopeDomain.ErrMetadataMissing)
	}

	meta, err := envelopeDomain.ParseFileMetadata(rawMeta)
	if err != nil {
		return e.fail(ctx, auditDomain.ActionDecryptFailed, source, auditDomain.TargetFile, details,
			err, envelopeDomain.ErrMetadataInvalid)
	}

	plaintext, err := e.open(ctx, meta.DekID, ciphertext, meta.IV, meta.Tag)
	if err != nil {
		return e.fail(ctx, auditDomain.ActionDecryptFailed, source, auditDomain.TargetFile, details,
			err, decryptError(err))
	}
	defer cryptoDomain.Zero(plaintext)

	if err := fsutil.WriteFileAtomic(dstPath, plaintext, filePerm); err != nil {
		return e.fail(ctx, auditDomain.ActionDecryptFailed, source, auditDomain.TargetFile, details,
			apperrors.Wrap(envelopeDomain.ErrDestinationWriteFailed, err.Error()),
			envelopeDomain.ErrDestinationWriteFailed)
	}

	e.auditLog.Log(ctx, auditDomain.ActionDecryptRequestProcessed, source, auditDomain.TargetFile,
		map[string]string{"file": filepath.Base(srcPath), "dest": filepath.Base(dstPath)})
	return nil
}

// sameFile reports whether both paths name the same file, either textually or, when
// both exist, through links.
func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}

// open resolves the DEK and decrypts.
func (e *envelopeUseCase) open(
	ctx context.Context,
	id cryptoDomain.DekID,
	ciphertext, iv, tag []byte,
) ([]byte, error) {
	dek, err := e.dekUseCase.GetDekByID(ctx, id)
	if err != nil {
		return nil, err
	}
	defer dek.Zero()

	return e.cipher.Decrypt(ciphertext, dek.Key, iv, tag, dek.Algorithm)
}

func (e *envelopeUseCase) writeMetadata(dstPath string, meta envelopeDomain.FileMetadata) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(envelopeDomain.MetadataPath(dstPath), raw, filePerm)
}

// fail records the detailed cause of a failed operation in the application log and
// the audit log, and returns the coarse error callers are allowed to see.
func (e *envelopeUseCase) fail(
	ctx context.Context,
	action, source, target string,
	details map[string]string,
	cause error,
	external error,
) error {
	code := envelopeDomain.CauseCode(cause)

	auditDetails := make(map[string]string, len(details)+1)
	for k, v := range details {
		auditDetails[k] = v
	}
	auditDetails["cause"] = code

	e.logger.Warn("envelope operation failed",
		slog.String("action", action),
		slog.String("source", source),
		slog.String("target", target),
		slog.String("cause", code),
	)
	e.auditLog.Log(ctx, action, source, target, auditDetails)

	return external
}

// decryptError collapses DEK lookup and cipher failures into one external error.
// A missing KEK is a configuration problem, not an oracle, and stays distinguishable.
func decryptError(err error) error {
	if apperrors.Is(err, cryptoDomain.ErrKekUnavailable) {
		return envelopeDomain.ErrDekUnavailable
	}
	return envelopeDomain.ErrDecryptionFailed
}
