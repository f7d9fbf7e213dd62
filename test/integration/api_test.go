// Package integration provides end-to-end tests for the envelope API.
// Every flow runs against each storage driver: memory and Badger always, PostgreSQL
// and MySQL when their test databases are reachable.
package integration

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/envelope/internal/app"
	auditRepository "github.com/allisson/envelope/internal/audit/repository"
	authService "github.com/allisson/envelope/internal/auth/service"
	"github.com/allisson/envelope/internal/config"
	envelopeDTO "github.com/allisson/envelope/internal/envelope/http/dto"
	"github.com/allisson/envelope/internal/testutil"
)

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container     *app.Container
	server        *httptest.Server
	adminToken    string
	storageDriver string
}

// makeRequest performs an HTTP request and returns the response and body.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body interface{},
	useAuth bool,
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if useAuth {
		req.Header.Set("Authorization", "Bearer "+ctx.adminToken)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	//nolint:gosec // controlled test environment with localhost URLs
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	if closeErr := resp.Body.Close(); closeErr != nil {
		t.Logf("Warning: failed to close response body: %v", closeErr)
	}

	return resp, respBody
}

// generateKek creates a hex encoded 32-byte KEK for testing.
func generateKek(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return hex.EncodeToString(key)
}

// setupIntegrationTest initializes all components for integration testing.
func setupIntegrationTest(t *testing.T, storageDriver string) *integrationTestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	tokenService := authService.NewTokenService()
	adminToken, adminTokenHash, err := tokenService.GenerateToken()
	require.NoError(t, err, "failed to generate admin token")

	cfg := &config.Config{
		ServerHost:           "localhost",
		ServerPort:           8080,
		OperationTimeout:     10 * time.Second,
		KEK:                  generateKek(t),
		DEKAlgorithm:         "aes-gcm",
		DEKStoreMaxRetries:   5,
		StorageDriver:        storageDriver,
		BadgerInMemory:       true,
		DBMaxOpenConnections: 10,
		DBMaxIdleConnections: 5,
		DBConnMaxLifetime:    time.Hour,
		SettingsFile:         filepath.Join(t.TempDir(), "settings.yaml"),
		RotationInterval:     "daily",
		RotationEnabled:      true,
		AdminTokenHash:       adminTokenHash,
		LogLevel:             "error",
	}

	for _, backend := range []testutil.Backend{testutil.Postgres, testutil.MySQL} {
		if backend.StorageDriver == storageDriver {
			backend.Open(t)
			cfg.DBConnectionString = backend.DSN()
		}
	}

	container := app.NewContainer(cfg)
	container.ReportKekStatus(context.Background())

	httpSrv, err := container.HTTPServer()
	require.NoError(t, err, "failed to get HTTP server")

	handler := httpSrv.GetHandler()
	require.NotNil(t, handler, "handler should not be nil after SetupRouter")

	t.Logf("Integration test setup complete for %s", storageDriver)

	return &integrationTestContext{
		container:     container,
		server:        httptest.NewServer(handler),
		adminToken:    adminToken,
		storageDriver: storageDriver,
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.server != nil {
		ctx.server.Close()
	}

	if ctx.container != nil {
		if err := ctx.container.Shutdown(context.Background()); err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}

	t.Logf("Integration test teardown complete for %s", ctx.storageDriver)
}

var storageDrivers = []struct {
	name          string
	storageDriver string
}{
	{"Memory", "memory"},
	{"Badger", "badger"},
	{"PostgreSQL", "postgres"},
	{"MySQL", "mysql"},
}

func (ctx *integrationTestContext) encrypt(t *testing.T, plaintext string) string {
	t.Helper()

	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/encrypt", envelopeDTO.EncryptRequest{
		Plaintext: base64.StdEncoding.EncodeToString([]byte(plaintext)),
		Source:    "integration",
	}, false)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var response envelopeDTO.EncryptResponse
	require.NoError(t, json.Unmarshal(body, &response))
	require.NotEmpty(t, response.Ciphertext)
	return response.Ciphertext
}

func (ctx *integrationTestContext) decrypt(t *testing.T, ciphertext string, passthrough bool) (int, []byte) {
	t.Helper()

	resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/decrypt", envelopeDTO.DecryptRequest{
		Ciphertext:  ciphertext,
		Source:      "integration",
		Passthrough: passthrough,
	}, false)

	var response envelopeDTO.DecryptResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.Unmarshal(body, &response))
	}
	return resp.StatusCode, response.Plaintext
}

// TestIntegration_Health_BasicChecks validates the health and readiness endpoints.
func TestIntegration_Health_BasicChecks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range storageDrivers {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.storageDriver)
			defer teardownIntegrationTest(t, ctx)

			t.Run("01_HealthCheck", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/health", nil, false)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]string
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "healthy", response["status"])
			})

			t.Run("02_ReadinessCheck", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/ready", nil, false)
				assert.Equal(t, http.StatusOK, resp.StatusCode)

				var response struct {
					Status     string            `json:"status"`
					Components map[string]string `json:"components"`
				}
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, "ready", response.Status)
				assert.Equal(t, "ok", response.Components["storage"])
				assert.Equal(t, "ok", response.Components["kek"])
			})
		})
	}
}

// TestIntegration_Envelope_CompleteFlow encrypts and decrypts across a DEK rotation.
func TestIntegration_Envelope_CompleteFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range storageDrivers {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.storageDriver)
			defer teardownIntegrationTest(t, ctx)

			var firstEnvelope string

			t.Run("01_EncryptDecrypt", func(t *testing.T) {
				firstEnvelope = ctx.encrypt(t, "first secret")

				status, plaintext := ctx.decrypt(t, firstEnvelope, false)
				assert.Equal(t, http.StatusOK, status)
				assert.Equal(t, "first secret", string(plaintext))
			})

			t.Run("02_ListDeks", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/deks", nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var response struct {
					Data []struct {
						ID     string `json:"id"`
						Active bool   `json:"active"`
					} `json:"data"`
				}
				require.NoError(t, json.Unmarshal(body, &response))
				require.Len(t, response.Data, 1)
				assert.True(t, response.Data[0].Active)
				assert.NotContains(t, string(body), "wrapped")
			})

			t.Run("03_RotateKeepsOldDataReadable", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/deks/rotate", nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

				secondEnvelope := ctx.encrypt(t, "second secret")
				assert.NotEqual(t, firstEnvelope, secondEnvelope)

				status, plaintext := ctx.decrypt(t, firstEnvelope, false)
				assert.Equal(t, http.StatusOK, status)
				assert.Equal(t, "first secret", string(plaintext))

				status, plaintext = ctx.decrypt(t, secondEnvelope, false)
				assert.Equal(t, http.StatusOK, status)
				assert.Equal(t, "second secret", string(plaintext))
			})

			t.Run("04_MalformedAndPassthrough", func(t *testing.T) {
				status, _ := ctx.decrypt(t, "not-an-envelope", false)
				assert.Equal(t, http.StatusUnprocessableEntity, status)

				status, plaintext := ctx.decrypt(t, "legacy plaintext", true)
				assert.Equal(t, http.StatusOK, status)
				assert.Equal(t, "legacy plaintext", string(plaintext))
			})

			t.Run("05_AdminRoutesRequireToken", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/deks/rotate", nil, false)
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})
		})
	}
}

// TestIntegration_AuditLog_CompleteFlow checks recording, signature verification,
// tamper detection and clearing of the audit log.
func TestIntegration_AuditLog_CompleteFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range storageDrivers {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.storageDriver)
			defer teardownIntegrationTest(t, ctx)

			ctx.encrypt(t, "audited")

			t.Run("01_ListNewestFirst", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/audit-logs?limit=10", nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var response struct {
					Data []struct {
						Action string `json:"action"`
						Source string `json:"source"`
						Signed bool   `json:"signed"`
					} `json:"data"`
				}
				require.NoError(t, json.Unmarshal(body, &response))
				require.NotEmpty(t, response.Data)
				assert.Equal(t, "encrypt_request_processed", response.Data[0].Action)
				assert.Equal(t, "integration", response.Data[0].Source)
				assert.True(t, response.Data[0].Signed)
				assert.NotContains(t, string(body), "audited")
			})

			t.Run("02_VerifyPasses", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/audit-logs/verify", nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]int
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Positive(t, response["valid"])
				assert.Zero(t, response["invalid"])
			})

			t.Run("03_TamperingIsDetected", func(t *testing.T) {
				store, err := ctx.container.Store()
				require.NoError(t, err)

				entry, err := store.Get(context.Background(), auditRepository.AuditLogKey)
				require.NoError(t, err)

				var events []map[string]any
				require.NoError(t, json.Unmarshal(entry.Value, &events))
				require.NotEmpty(t, events)
				events[0]["source"] = "forged"

				tampered, err := json.Marshal(events)
				require.NoError(t, err)
				_, err = store.Set(context.Background(), auditRepository.AuditLogKey, tampered)
				require.NoError(t, err)

				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/audit-logs/verify", nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var response map[string]int
				require.NoError(t, json.Unmarshal(body, &response))
				assert.Equal(t, 1, response["invalid"])
			})

			t.Run("04_ClearRecordsLogsCleared", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodDelete, "/v1/audit-logs", nil, true)
				require.Equal(t, http.StatusNoContent, resp.StatusCode)

				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/audit-logs", nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var response struct {
					Data []struct {
						Action string `json:"action"`
						Source string `json:"source"`
					} `json:"data"`
				}
				require.NoError(t, json.Unmarshal(body, &response))
				require.Len(t, response.Data, 1)
				assert.Equal(t, "logs_cleared", response.Data[0].Action)
				assert.Equal(t, "admin", response.Data[0].Source)
			})
		})
	}
}

// TestIntegration_Settings_CompleteFlow changes the rotation interval over the API.
func TestIntegration_Settings_CompleteFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := setupIntegrationTest(t, "memory")
	defer teardownIntegrationTest(t, ctx)

	t.Run("01_DefaultInterval", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/settings", nil, false)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), `"rotation_interval":"daily"`)
	})

	t.Run("02_UpdateRequiresAdmin", func(t *testing.T) {
		resp, _ := ctx.makeRequest(t, http.MethodPut, "/v1/settings",
			map[string]string{"rotation_interval": "weekly"}, false)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("03_Update", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodPut, "/v1/settings",
			map[string]string{"rotation_interval": "weekly"}, true)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		assert.Contains(t, string(body), `"rotation_interval":"weekly"`)

		scheduler, err := ctx.container.Scheduler()
		require.NoError(t, err)
		require.NotNil(t, scheduler)
		assert.Equal(t, "weekly", string(scheduler.Interval()))
	})

	t.Run("04_UnknownIntervalRejected", func(t *testing.T) {
		resp, _ := ctx.makeRequest(t, http.MethodPut, "/v1/settings",
			map[string]string{"rotation_interval": "monthly"}, true)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/settings", nil, false)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), `"rotation_interval":"weekly"`)
	})
}
