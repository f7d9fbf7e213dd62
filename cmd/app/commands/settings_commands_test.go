package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	rotationDomain "github.com/allisson/envelope/internal/rotation/domain"
	rotationMocks "github.com/allisson/envelope/internal/rotation/usecase/mocks"
)

func TestRunShowRotationSettings(t *testing.T) {
	ctx := context.Background()

	t.Run("text", func(t *testing.T) {
		mockUseCase := &rotationMocks.MockSettingsUseCase{}
		mockUseCase.On("Get", ctx).Return(rotationDomain.Settings{RotationInterval: rotationDomain.Daily}, nil)

		var out bytes.Buffer
		require.NoError(t, RunShowRotationSettings(ctx, mockUseCase, &out, "text"))
		require.Contains(t, out.String(), "Rotation interval: daily")
		require.Contains(t, out.String(), "Available intervals: hourly, twicedaily, daily, weekly")
	})

	t.Run("error", func(t *testing.T) {
		mockUseCase := &rotationMocks.MockSettingsUseCase{}
		mockUseCase.On("Get", ctx).Return(rotationDomain.Settings{}, errors.New("permission denied"))

		var out bytes.Buffer
		err := RunShowRotationSettings(ctx, mockUseCase, &out, "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to load rotation settings")
	})
}

func TestRunSetRotationInterval(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	t.Run("success-json", func(t *testing.T) {
		mockUseCase := &rotationMocks.MockSettingsUseCase{}
		mockUseCase.On("Update", ctx, "weekly", auditDomain.SourceCLI).
			Return(rotationDomain.Settings{RotationInterval: rotationDomain.Weekly}, nil)

		var out bytes.Buffer
		require.NoError(t, RunSetRotationInterval(ctx, mockUseCase, logger, &out, "weekly", "json"))

		var result map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		require.Equal(t, "weekly", result["rotation_interval"])
		mockUseCase.AssertExpectations(t)
	})

	t.Run("blank", func(t *testing.T) {
		mockUseCase := &rotationMocks.MockSettingsUseCase{}

		var out bytes.Buffer
		err := RunSetRotationInterval(ctx, mockUseCase, logger, &out, "  ", "text")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid rotation interval")
		mockUseCase.AssertNotCalled(t, "Update")
	})

	t.Run("unknown-interval", func(t *testing.T) {
		mockUseCase := &rotationMocks.MockSettingsUseCase{}
		mockUseCase.On("Update", ctx, "monthly", auditDomain.SourceCLI).
			Return(rotationDomain.Settings{}, rotationDomain.ErrInvalidInterval)

		var out bytes.Buffer
		err := RunSetRotationInterval(ctx, mockUseCase, logger, &out, "monthly", "text")
		require.ErrorIs(t, err, rotationDomain.ErrInvalidInterval)
		require.Empty(t, out.String())
	})
}
