package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	cryptoDto "github.com/allisson/envelope/internal/crypto/http/dto"
	cryptoUseCase "github.com/allisson/envelope/internal/crypto/usecase"
)

// RunRotateDek generates a new active DEK. Existing DEKs stay available for
// decrypting older data.
func RunRotateDek(
	ctx context.Context,
	dekUseCase cryptoUseCase.DekUseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	ctx = auditDomain.WithSource(ctx, auditDomain.SourceCLI)

	if _, err := dekUseCase.Rotate(ctx); err != nil {
		return fmt.Errorf("failed to rotate DEK: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, cryptoDto.RotateDekResponse{Rotated: true}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintln(writer, "DEK rotated successfully")
	}

	logger.Info("dek rotated")
	return nil
}

// RunListDeks prints the non-sensitive view of every DEK, oldest first.
func RunListDeks(
	ctx context.Context,
	dekUseCase cryptoUseCase.DekUseCase,
	writer io.Writer,
	format string,
) error {
	infos, err := dekUseCase.ListDeks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list DEKs: %w", err)
	}

	response := cryptoDto.MapDekInfosToListResponse(infos)
	if format == "json" {
		return writeJSON(writer, response)
	}

	if len(response.Data) == 0 {
		_, _ = fmt.Fprintln(writer, "No DEKs found")
		return nil
	}

	for _, dek := range response.Data {
		marker := " "
		if dek.Active {
			marker = "*"
		}
		_, _ = fmt.Fprintf(writer, "%s %s  %s  %s\n",
			marker, dek.ID, dek.Algorithm, dek.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

// RunPruneDeks removes inactive DEKs older than maxAgeDays. The active DEK and the
// ids listed in retain are always kept.
//
// Data encrypted with a pruned DEK can never be decrypted again, so without dryRun
// the command refuses to run unless confirm is set.
func RunPruneDeks(
	ctx context.Context,
	dekUseCase cryptoUseCase.DekUseCase,
	logger *slog.Logger,
	writer io.Writer,
	maxAgeDays int,
	retain []string,
	dryRun bool,
	confirm bool,
	format string,
) error {
	request := cryptoDto.PruneDeksRequest{
		MaxAgeDays: maxAgeDays,
		Retain:     retain,
		DryRun:     dryRun,
		Confirm:    confirm,
	}
	if err := request.Validate(); err != nil {
		return fmt.Errorf("invalid prune options: %w", err)
	}

	ctx = auditDomain.WithSource(ctx, auditDomain.SourceCLI)

	logger.Info("pruning deks",
		slog.Int("max_age_days", maxAgeDays),
		slog.Int("retained", len(retain)),
		slog.Bool("dry_run", dryRun),
	)

	pruned, err := dekUseCase.Prune(ctx, time.Duration(maxAgeDays)*24*time.Hour, request.RetainFunc(), dryRun)
	if err != nil {
		return fmt.Errorf("failed to prune DEKs: %w", err)
	}

	response := cryptoDto.MapPruneResult(pruned, dryRun)
	if format == "json" {
		return writeJSON(writer, response)
	}

	verb := "Pruned"
	if dryRun {
		verb = "Would prune"
	}
	_, _ = fmt.Fprintf(writer, "%s %d DEK(s)\n", verb, len(response.Pruned))
	for _, id := range response.Pruned {
		_, _ = fmt.Fprintf(writer, "  - %s\n", id)
	}

	logger.Info("prune completed", slog.Int("count", len(pruned)), slog.Bool("dry_run", dryRun))
	return nil
}
