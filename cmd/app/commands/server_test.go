package commands

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	cryptoMocks "github.com/allisson/envelope/internal/crypto/usecase/mocks"
)

func TestEnsureActiveDek(t *testing.T) {
	ctx := context.Background()
	systemSource := mock.MatchedBy(func(ctx context.Context) bool {
		return auditDomain.SourceFromContext(ctx, "") == auditDomain.SourceSystem
	})

	t.Run("zeroes-generated-dek", func(t *testing.T) {
		key := cryptoDomain.NewKey([]byte{1, 2, 3, 4})
		dek := &cryptoDomain.Dek{Key: key, Algorithm: cryptoDomain.AESGCM}

		mockUseCase := &cryptoMocks.MockDekUseCase{}
		mockUseCase.On("GetActiveDek", systemSource).Return(dek, nil)

		var logs bytes.Buffer
		ensureActiveDek(ctx, mockUseCase, slog.New(slog.NewTextHandler(&logs, nil)))

		require.Equal(t, []byte{0, 0, 0, 0}, key.Bytes())
		require.Empty(t, logs.String())
		mockUseCase.AssertExpectations(t)
	})

	t.Run("degraded", func(t *testing.T) {
		mockUseCase := &cryptoMocks.MockDekUseCase{}
		mockUseCase.On("GetActiveDek", systemSource).Return(nil, cryptoDomain.ErrKekUnavailable)

		var logs bytes.Buffer
		ensureActiveDek(ctx, mockUseCase, slog.New(slog.NewTextHandler(&logs, nil)))

		require.Contains(t, logs.String(), "encryption is disabled")
	})
}
