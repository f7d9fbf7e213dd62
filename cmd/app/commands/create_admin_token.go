package commands

import (
	"fmt"
	"io"
	"log/slog"

	authService "github.com/allisson/envelope/internal/auth/service"
)

// RunCreateAdminToken generates a new admin bearer token and its Argon2id hash.
//
// The token is shown once and never stored. Only ADMIN_TOKEN_HASH goes into the
// server configuration.
func RunCreateAdminToken(
	tokenService authService.TokenService,
	logger *slog.Logger,
	writer io.Writer,
) error {
	token, hash, err := tokenService.GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate admin token: %w", err)
	}

	_, _ = fmt.Fprintln(writer, "# Admin Token")
	_, _ = fmt.Fprintln(writer, "# Send it as 'Authorization: Bearer <token>'. It will not be shown again.")
	_, _ = fmt.Fprintf(writer, "# %s\n", token)
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer, "ADMIN_TOKEN_HASH=\"%s\"\n", hash)

	logger.Info("admin token generated")
	return nil
}
