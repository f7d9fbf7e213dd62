package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	rotationDto "github.com/allisson/envelope/internal/rotation/http/dto"
	rotationUseCase "github.com/allisson/envelope/internal/rotation/usecase"
)

// RunShowRotationSettings prints the persisted rotation settings.
func RunShowRotationSettings(
	ctx context.Context,
	settingsUseCase rotationUseCase.SettingsUseCase,
	writer io.Writer,
	format string,
) error {
	settings, err := settingsUseCase.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rotation settings: %w", err)
	}

	return outputSettings(writer, rotationDto.MapSettingsToResponse(settings), format)
}

// RunSetRotationInterval persists a new rotation interval. A running server picks the
// change up from the settings file and reschedules rotation.
func RunSetRotationInterval(
	ctx context.Context,
	settingsUseCase rotationUseCase.SettingsUseCase,
	logger *slog.Logger,
	writer io.Writer,
	interval string,
	format string,
) error {
	request := rotationDto.UpdateSettingsRequest{RotationInterval: interval}
	if err := request.Validate(); err != nil {
		return fmt.Errorf("invalid rotation interval: %w", err)
	}

	settings, err := settingsUseCase.Update(ctx, request.RotationInterval, auditDomain.SourceCLI)
	if err != nil {
		return fmt.Errorf("failed to update rotation settings: %w", err)
	}

	logger.Info("rotation interval updated", slog.String("interval", string(settings.RotationInterval)))
	return outputSettings(writer, rotationDto.MapSettingsToResponse(settings), format)
}

func outputSettings(writer io.Writer, response rotationDto.SettingsResponse, format string) error {
	if format == "json" {
		return writeJSON(writer, response)
	}

	_, _ = fmt.Fprintf(writer, "Rotation interval: %s\n", response.RotationInterval)
	_, _ = fmt.Fprintf(writer, "Available intervals: %s\n", strings.Join(response.AvailableIntervals, ", "))
	return nil
}
