package di

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontology-backend/application/services"
	domainconfig "ontology-backend/domain/config"
	"ontology-backend/infrastructure/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Environment:        "test",
		StorageBackend:     config.StorageMemory,
		AWSRegion:          "us-east-1",
		LogLevel:           "error",
		JWTSecret:          "test-secret",
		JWTIssuer:          "ontology-backend",
		RateLimitPerMinute: 100,
		EnableMetrics:      true,
		SearchCollection:   "ontology",
		Domain:             domainconfig.DefaultDomainConfig(),
	}
}

func TestInitializeContainer_MemoryBackend(t *testing.T) {
	// Arrange
	container, cleanup, err := InitializeContainer(context.Background(), memoryConfig())
	require.NoError(t, err)
	defer cleanup()

	key, err := container.APIKeys.Generate(context.Background(), services.GenerateKeyRequest{UserID: "u1", Uname: "alice"})
	require.NoError(t, err)

	// Act
	body := `{"title":"Pilot","nodeType":"actor","reasoning":"r","generalizations":[{"collectionName":"main","nodes":[{"id":"missing"}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/nodes", strings.NewReader(body))
	req.Header.Set("x-api-key", key.APIKey)
	rec := httptest.NewRecorder()
	container.Handler.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "NODE_NOT_FOUND", resp.Error.Code)

	metrics := httptest.NewRecorder()
	container.Handler.ServeHTTP(metrics, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	text, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)
	assert.Contains(t, string(text), `ontology_commands_total{command="CreateNodeCommand",status="failure"} 1`)
}

func TestInitializeContainer_ListsEmptyStore(t *testing.T) {
	container, cleanup, err := InitializeContainer(context.Background(), memoryConfig())
	require.NoError(t, err)
	defer cleanup()
	key, err := container.APIKeys.Generate(context.Background(), services.GenerateKeyRequest{UserID: "u1", Uname: "alice"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/nodes/list", nil)
	req.Header.Set("x-api-key", key.APIKey)
	rec := httptest.NewRecorder()
	container.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data     []any          `json:"data"`
		Metadata map[string]any `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data)
	assert.Equal(t, 0.0, resp.Metadata["total"])
}

func TestProvideStorage_SelectsBackend(t *testing.T) {
	cfg := memoryConfig()
	logging, cleanup, err := ProvideLogging(cfg)
	require.NoError(t, err)
	defer cleanup()

	s := ProvideStorage(cfg, nil, logging.Logger)

	assert.Same(t, s.Nodes, s.Batch)
	assert.NotNil(t, s.Locker)
}
