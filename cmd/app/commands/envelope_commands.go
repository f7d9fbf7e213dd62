package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	envelopeUseCase "github.com/allisson/envelope/internal/envelope/usecase"
)

const encryptedFileSuffix = ".enc"

// RunEncryptString encrypts value, or the first line of stdin when value is empty,
// and prints the envelope string.
func RunEncryptString(
	ctx context.Context,
	envelope envelopeUseCase.EnvelopeUseCase,
	stdio IOTuple,
	value string,
) error {
	plaintext, err := readInput(value, stdio.Reader)
	if err != nil {
		return err
	}

	ciphertext, err := envelope.EncryptString(ctx, []byte(plaintext), auditDomain.SourceCLI)
	if err != nil {
		return fmt.Errorf("failed to encrypt: %w", err)
	}

	_, _ = fmt.Fprintln(stdio.Writer, ciphertext)
	return nil
}

// RunDecryptString decrypts an envelope string given as value or on stdin and prints
// the plaintext. With passthrough, input that is not an envelope is printed unchanged.
func RunDecryptString(
	ctx context.Context,
	envelope envelopeUseCase.EnvelopeUseCase,
	stdio IOTuple,
	value string,
	passthrough bool,
) error {
	input, err := readInput(value, stdio.Reader)
	if err != nil {
		return err
	}

	var plaintext []byte
	if passthrough {
		plaintext, err = envelope.DecryptStringOrPassthrough(ctx, input, auditDomain.SourceCLI)
	} else {
		plaintext, err = envelope.DecryptString(ctx, input, auditDomain.SourceCLI)
	}
	if err != nil {
		return fmt.Errorf("failed to decrypt: %w", err)
	}
	defer cryptoDomain.Zero(plaintext)

	_, _ = fmt.Fprintln(stdio.Writer, string(plaintext))
	return nil
}

// RunEncryptFile encrypts srcPath into dstPath and writes the dstPath.meta sidecar.
// An empty dstPath defaults to srcPath with the .enc suffix.
func RunEncryptFile(
	ctx context.Context,
	envelope envelopeUseCase.EnvelopeUseCase,
	logger *slog.Logger,
	stdio IOTuple,
	srcPath, dstPath string,
) error {
	if srcPath == "" {
		return fmt.Errorf("input file is required")
	}
	if dstPath == "" {
		dstPath = srcPath + encryptedFileSuffix
	}

	if err := envelope.EncryptFile(ctx, srcPath, dstPath, auditDomain.SourceCLI); err != nil {
		return fmt.Errorf("failed to encrypt file: %w", err)
	}

	_, _ = fmt.Fprintf(stdio.Writer, "Encrypted %s -> %s\n", srcPath, dstPath)
	logger.Info("file encrypted", slog.String("file", filepath.Base(srcPath)))
	return nil
}

// RunDecryptFile decrypts srcPath, using its .meta sidecar, into dstPath. An empty
// dstPath defaults to srcPath without its .enc suffix, or with .dec appended when it
// has none.
func RunDecryptFile(
	ctx context.Context,
	envelope envelopeUseCase.EnvelopeUseCase,
	logger *slog.Logger,
	stdio IOTuple,
	srcPath, dstPath string,
) error {
	if srcPath == "" {
		return fmt.Errorf("input file is required")
	}
	if dstPath == "" {
		dstPath = defaultDecryptedPath(srcPath)
	}

	if err := envelope.DecryptFile(ctx, srcPath, dstPath, auditDomain.SourceCLI); err != nil {
		return fmt.Errorf("failed to decrypt file: %w", err)
	}

	_, _ = fmt.Fprintf(stdio.Writer, "Decrypted %s -> %s\n", srcPath, dstPath)
	logger.Info("file decrypted", slog.String("file", filepath.Base(srcPath)))
	return nil
}

func defaultDecryptedPath(srcPath string) string {
	if trimmed := strings.TrimSuffix(srcPath, encryptedFileSuffix); trimmed != srcPath && trimmed != "" {
		return trimmed
	}
	return srcPath + ".dec"
}
