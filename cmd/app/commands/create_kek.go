package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	cryptoService "github.com/allisson/envelope/internal/crypto/service"
)

// RunCreateKek generates a random 32-byte Key Encryption Key and prints it as
// environment variables.
//
// Without kmsKeyURI the KEK is printed hex encoded. With kmsKeyURI the hex text is
// encrypted by the KMS keeper and printed as base64 ciphertext together with the
// KEK_KMS_KEY_URI variable that the server needs to unwrap it. Key material is zeroed
// after encoding.
//
// Output format:
//   - KEK="<hex or base64-encoded-kms-ciphertext>"
//   - KEK_KMS_KEY_URI="<uri>" (KMS mode only)
func RunCreateKek(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	kmsKeyURI string,
) error {
	key := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("failed to generate kek: %w", err)
	}
	defer cryptoDomain.Zero(key)

	material := []byte(hex.EncodeToString(key))
	defer cryptoDomain.Zero(material)

	if kmsKeyURI == "" {
		_, _ = fmt.Fprintln(writer, "# KEK Configuration")
		_, _ = fmt.Fprintln(writer, "# Copy this environment variable to your .env file or secrets manager")
		_, _ = fmt.Fprintln(writer)
		_, _ = fmt.Fprintf(writer, "KEK=\"%s\"\n", material)

		logger.Info("kek generated", slog.String("mode", "plain"))
		return nil
	}

	keeper, err := kmsService.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		if closeErr := keeper.Close(); closeErr != nil {
			logger.Warn("failed to close KMS keeper", slog.Any("error", closeErr))
		}
	}()

	ciphertext, err := keeper.Encrypt(ctx, material)
	if err != nil {
		return fmt.Errorf("failed to encrypt kek with KMS: %w", err)
	}

	_, _ = fmt.Fprintln(writer, "# KEK Configuration (KMS Mode)")
	_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer, "KEK=\"%s\"\n", base64.StdEncoding.EncodeToString(ciphertext))
	_, _ = fmt.Fprintf(writer, "KEK_KMS_KEY_URI=\"%s\"\n", kmsKeyURI)

	logger.Info("kek generated", slog.String("mode", "kms"))
	return nil
}
