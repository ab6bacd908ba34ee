package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	domainconfig "ontology-backend/domain/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("STORAGE_BACKEND", "")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, StorageDynamoDB, cfg.StorageBackend)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "ouhrac", cfg.Domain.SystemUser)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("BATCH_SIZE", "50")
	t.Setenv("LOCK_TTL", "5s")
	t.Setenv("ENABLE_EVENTS", "false")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MAX_NODES_PER_REQUEST", "not-a-number")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, 50, cfg.Domain.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.Domain.LockTTL)
	assert.False(t, cfg.Domain.EnableEvents)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 100, cfg.Domain.MaxNodesPerRequest)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.StorageBackend = "postgres" }, wantErr: "STORAGE_BACKEND"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "LOG_LEVEL"},
		{
			name:    "production without secret",
			mutate:  func(c *Config) { c.Environment = "production" },
			wantErr: "JWT_SECRET",
		},
		{
			name: "production on memory",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.JWTSecret = "s"
				c.StorageBackend = StorageMemory
			},
			wantErr: "STORAGE_BACKEND",
		},
		{name: "bad domain", mutate: func(c *Config) { c.Domain.BatchSize = 0 }, wantErr: "BatchSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				StorageBackend: StorageDynamoDB,
				Environment:    "development",
				LogLevel:       "info",
				EventBusName:   "bus",
				Domain:         domainconfig.DefaultDomainConfig(),
			}
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func writeYAML(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadDynamicConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runtime.yaml")
	writeYAML(t, path, `
logLevel: debug
limits:
  batchSize: 200
  defaultListLimit: 25
features:
  enableSearchIndexing: true
`)

	cfg, err := LoadDynamicConfig(path)

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 200, cfg.Limits.BatchSize)
	assert.Equal(t, 25, cfg.Limits.DefaultListLimit)
	require.NotNil(t, cfg.Features.EnableSearchIndexing)
	assert.True(t, *cfg.Features.EnableSearchIndexing)
	assert.Nil(t, cfg.Features.EnableEvents)
	assert.Equal(t, "1.0.0", cfg.Metadata.Version)
}

func TestDynamicConfig_Validate(t *testing.T) {
	bounds := domainconfig.DefaultDomainConfig()

	assert.NoError(t, (&DynamicConfig{}).Validate(bounds))
	assert.Error(t, (&DynamicConfig{LogLevel: "chatty"}).Validate(bounds))
	assert.Error(t, (&DynamicConfig{Limits: Limits{BatchSize: -1}}).Validate(bounds))
	assert.Error(t, (&DynamicConfig{Limits: Limits{DefaultListLimit: 500}}).Validate(bounds))
}

func TestRuntime_ApplyKeepsUnsetValues(t *testing.T) {
	domain := domainconfig.DefaultDomainConfig()
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	r, err := NewRuntime("", domain, level, zap.NewNop())
	require.NoError(t, err)

	off := false
	r.Apply(&DynamicConfig{
		LogLevel: "warn",
		Limits:   Limits{MaxNodesPerRequest: 20},
		Features: Features{EnableEvents: &off},
	})

	assert.Equal(t, zapcore.WarnLevel, level.Level())
	assert.Equal(t, 20, domain.MaxNodesPerRequest)
	assert.Equal(t, 400, domain.BatchSize)
	assert.False(t, domain.EnableEvents)
	assert.False(t, domain.EnableSearchIndexing)
}

func TestRuntime_ReloadsOnFileChange(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "runtime.yaml")
	writeYAML(t, path, "limits:\n  defaultListLimit: 15\n")
	domain := domainconfig.DefaultDomainConfig()
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)

	r, err := NewRuntime(path, domain, level, zap.NewNop())
	require.NoError(t, err)
	defer r.Stop()
	require.Equal(t, 15, domain.DefaultListLimit)

	// Act
	writeYAML(t, path, "logLevel: error\nlimits:\n  defaultListLimit: 30\n")

	// Assert
	require.Eventually(t, func() bool {
		return level.Level() == zapcore.ErrorLevel
	}, 3*time.Second, 20*time.Millisecond)
	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Equal(t, 30, domain.DefaultListLimit)
}

func TestRuntime_RejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runtime.yaml")
	writeYAML(t, path, "limits:\n  batchSize: -4\n")

	_, err := NewRuntime(path, domainconfig.DefaultDomainConfig(), zap.NewAtomicLevel(), zap.NewNop())

	assert.Error(t, err)
}
