package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	rotationDomain "github.com/allisson/envelope/internal/rotation/domain"
	"github.com/allisson/envelope/internal/rotation/usecase/mocks"
)

func setupTestSettingsHandler(t *testing.T) (*SettingsHandler, *mocks.MockSettingsUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := &mocks.MockSettingsUseCase{}
	t.Cleanup(func() { mockUseCase.AssertExpectations(t) })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewSettingsHandler(mockUseCase, logger), mockUseCase
}

func newContext(method string, body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	c.Request = httptest.NewRequest(method, "/v1/settings", reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

const dailyResponse = `{"rotation_interval":"daily","available_intervals":["hourly","twicedaily","daily","weekly"]}`

func TestSettingsHandler_GetHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestSettingsHandler(t)

		mockUseCase.On("Get", mock.Anything).
			Return(rotationDomain.Settings{RotationInterval: rotationDomain.Daily}, nil).
			Once()

		c, w := newContext(http.MethodGet, "")
		handler.GetHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, dailyResponse, w.Body.String())
	})

	t.Run("Error", func(t *testing.T) {
		handler, mockUseCase := setupTestSettingsHandler(t)

		mockUseCase.On("Get", mock.Anything).Return(rotationDomain.Settings{}, errors.New("boom")).Once()

		c, w := newContext(http.MethodGet, "")
		handler.GetHandler(c)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestSettingsHandler_UpdateHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockUseCase := setupTestSettingsHandler(t)

		mockUseCase.On("Update", mock.Anything, "daily", "admin").
			Return(rotationDomain.Settings{RotationInterval: rotationDomain.Daily}, nil).
			Once()

		c, w := newContext(http.MethodPut, `{"rotation_interval":"daily"}`)
		handler.UpdateHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, dailyResponse, w.Body.String())
	})

	t.Run("Error_InvalidInterval", func(t *testing.T) {
		handler, mockUseCase := setupTestSettingsHandler(t)

		mockUseCase.On("Update", mock.Anything, "monthly", "admin").
			Return(rotationDomain.Settings{}, rotationDomain.ErrInvalidInterval).
			Once()

		c, w := newContext(http.MethodPut, `{"rotation_interval":"monthly"}`)
		handler.UpdateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_Missing", func(t *testing.T) {
		handler, _ := setupTestSettingsHandler(t)

		c, w := newContext(http.MethodPut, `{}`)
		handler.UpdateHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_InvalidJSON", func(t *testing.T) {
		handler, _ := setupTestSettingsHandler(t)

		c, w := newContext(http.MethodPut, `not json`)
		handler.UpdateHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
