package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/envelope/internal/audit/domain"
	cryptoDomain "github.com/allisson/envelope/internal/crypto/domain"
	"github.com/allisson/envelope/internal/crypto/http/dto"
	"github.com/allisson/envelope/internal/crypto/usecase/mocks"
)

func setupTestDekHandler(t *testing.T) (*DekHandler, *mocks.MockDekUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := &mocks.MockDekUseCase{}
	t.Cleanup(func() { mockUseCase.AssertExpectations(t) })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewDekHandler(mockUseCase, logger), mockUseCase
}

func createTestContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	return c, w
}

func adminSource(ctx context.Context) bool {
	return auditDomain.SourceFromContext(ctx, "") == auditDomain.SourceAdmin
}

func mustDekID(t *testing.T, value string) cryptoDomain.DekID {
	t.Helper()
	id, err := cryptoDomain.ParseDekID(value)
	require.NoError(t, err)
	return id
}

func TestDekHandler_RotateHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestDekHandler(t)

		mockUseCase.On("Rotate", mock.MatchedBy(adminSource)).Return(mustDekID(t, "dek_new"), nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/deks/rotate", nil)
		handler.RotateHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"rotated":true}`, w.Body.String())
	})

	t.Run("Error_KekUnavailable", func(t *testing.T) {
		handler, mockUseCase := setupTestDekHandler(t)

		mockUseCase.On("Rotate", mock.Anything).Return(cryptoDomain.DekID{}, cryptoDomain.ErrKekUnavailable).Once()

		c, w := createTestContext(http.MethodPost, "/v1/deks/rotate", nil)
		handler.RotateHandler(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestDekHandler_ListHandler(t *testing.T) {
	handler, mockUseCase := setupTestDekHandler(t)

	createdAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mockUseCase.On("ListDeks", mock.Anything).Return([]cryptoDomain.DekInfo{
		{ID: mustDekID(t, "dek_old"), Algorithm: cryptoDomain.AESGCM, CreatedAt: createdAt},
		{ID: mustDekID(t, "dek_new"), Algorithm: cryptoDomain.ChaCha20, CreatedAt: createdAt, Active: true},
	}, nil).Once()

	c, w := createTestContext(http.MethodGet, "/v1/deks", nil)
	handler.ListHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response dto.ListDeksResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Data, 2)
	assert.Equal(t, "dek_old", response.Data[0].ID)
	assert.Equal(t, "chacha20-poly1305", response.Data[1].Algorithm)
	assert.True(t, response.Data[1].Active)
	assert.NotContains(t, w.Body.String(), "key")
}

func TestDekHandler_PruneHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestDekHandler(t)

		mockUseCase.On("Prune", mock.MatchedBy(adminSource), 90*24*time.Hour, mock.Anything, false).
			Return([]cryptoDomain.DekID{mustDekID(t, "dek_old")}, nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/deks/prune", dto.PruneDeksRequest{
			MaxAgeDays: 90,
			Confirm:    true,
		})
		handler.PruneHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"dry_run":false,"pruned":["dek_old"]}`, w.Body.String())
	})

	t.Run("Success_DryRun", func(t *testing.T) {
		handler, mockUseCase := setupTestDekHandler(t)

		mockUseCase.On("Prune", mock.Anything, 24*time.Hour, mock.Anything, true).
			Return([]cryptoDomain.DekID{}, nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/deks/prune", dto.PruneDeksRequest{
			MaxAgeDays: 1,
			DryRun:     true,
		})
		handler.PruneHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"dry_run":true,"pruned":[]}`, w.Body.String())
	})

	t.Run("Error_NotConfirmed", func(t *testing.T) {
		handler, _ := setupTestDekHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/deks/prune", dto.PruneDeksRequest{MaxAgeDays: 90})
		handler.PruneHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_MalformedStore", func(t *testing.T) {
		handler, mockUseCase := setupTestDekHandler(t)

		mockUseCase.On("Prune", mock.Anything, 24*time.Hour, mock.Anything, false).
			Return(nil, cryptoDomain.ErrDekStoreMalformed).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/deks/prune", dto.PruneDeksRequest{
			MaxAgeDays: 1,
			Confirm:    true,
		})
		handler.PruneHandler(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
