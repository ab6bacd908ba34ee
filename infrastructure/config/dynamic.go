package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	domainconfig "ontology-backend/domain/config"
)

// DynamicConfig is the part of the configuration that can change while the
// process runs. It is read from the YAML file named by CONFIG_FILE.
type DynamicConfig struct {
	LogLevel string         `yaml:"logLevel"`
	Limits   Limits         `yaml:"limits"`
	Features Features       `yaml:"features"`
	Metadata ConfigMetadata `yaml:"metadata"`
}

// Limits holds runtime limits. Zero values leave the current setting alone.
type Limits struct {
	BatchSize           int `yaml:"batchSize"`
	MaxNodesPerRequest  int `yaml:"maxNodesPerRequest"`
	DefaultListLimit    int `yaml:"defaultListLimit"`
	DefaultChangesLimit int `yaml:"defaultChangesLimit"`
}

// Features holds runtime feature flags. Nil leaves the current setting alone.
type Features struct {
	EnableEvents         *bool `yaml:"enableEvents"`
	EnableSearchIndexing *bool `yaml:"enableSearchIndexing"`
}

// ConfigMetadata holds metadata about the configuration
type ConfigMetadata struct {
	Version   string    `yaml:"version"`
	UpdatedAt time.Time `yaml:"updatedAt"`
	UpdatedBy string    `yaml:"updatedBy"`
}

// Validate checks the values present in the file.
func (d *DynamicConfig) Validate(bounds *domainconfig.DomainConfig) error {
	if d.LogLevel != "" {
		if _, err := zapcore.ParseLevel(d.LogLevel); err != nil {
			return fmt.Errorf("logLevel: %w", err)
		}
	}
	if d.Limits.BatchSize < 0 {
		return fmt.Errorf("batchSize cannot be negative")
	}
	if d.Limits.MaxNodesPerRequest < 0 || d.Limits.MaxNodesPerRequest > 1000 {
		return fmt.Errorf("maxNodesPerRequest must be between 0 and 1000")
	}
	if d.Limits.DefaultListLimit < 0 || d.Limits.DefaultListLimit > bounds.MaxListLimit {
		return fmt.Errorf("defaultListLimit must be between 0 and %d", bounds.MaxListLimit)
	}
	if d.Limits.DefaultChangesLimit < 0 || d.Limits.DefaultChangesLimit > bounds.MaxChangesLimit {
		return fmt.Errorf("defaultChangesLimit must be between 0 and %d", bounds.MaxChangesLimit)
	}
	return nil
}

// LoadDynamicConfig reads and parses a YAML runtime configuration file.
func LoadDynamicConfig(path string) (*DynamicConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg DynamicConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if cfg.Metadata.Version == "" {
		cfg.Metadata.Version = "1.0.0"
	}
	return &cfg, nil
}

// Runtime applies dynamic configuration to the live domain config and log
// level.
type Runtime struct {
	mu      sync.Mutex
	domain  *domainconfig.DomainConfig
	level   zap.AtomicLevel
	watcher *ConfigWatcher
	logger  *zap.Logger
}

// NewRuntime loads path, applies it and starts watching it. An empty path
// returns a runtime that only holds the static settings.
func NewRuntime(path string, domain *domainconfig.DomainConfig, level zap.AtomicLevel, logger *zap.Logger) (*Runtime, error) {
	r := &Runtime{domain: domain, level: level, logger: logger}
	if path == "" {
		return r, nil
	}

	initial, err := LoadDynamicConfig(path)
	if err != nil {
		return nil, err
	}
	if err := initial.Validate(domain); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	r.Apply(initial)

	w, err := NewConfigWatcher(path, func(d *DynamicConfig) error { return d.Validate(domain) }, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}
	w.OnChange(r.Apply)
	w.Start()
	r.watcher = w
	return r, nil
}

// Apply copies the non-zero settings of d into the live configuration.
func (r *Runtime) Apply(d *DynamicConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d.LogLevel != "" {
		if lvl, err := zapcore.ParseLevel(d.LogLevel); err == nil && lvl != r.level.Level() {
			r.logger.Info("Log level changed",
				zap.String("old", r.level.Level().String()),
				zap.String("new", lvl.String()),
			)
			r.level.SetLevel(lvl)
		}
	}
	if d.Limits.BatchSize > 0 {
		r.domain.BatchSize = d.Limits.BatchSize
	}
	if d.Limits.MaxNodesPerRequest > 0 {
		r.domain.MaxNodesPerRequest = d.Limits.MaxNodesPerRequest
	}
	if d.Limits.DefaultListLimit > 0 {
		r.domain.DefaultListLimit = d.Limits.DefaultListLimit
	}
	if d.Limits.DefaultChangesLimit > 0 {
		r.domain.DefaultChangesLimit = d.Limits.DefaultChangesLimit
	}
	if d.Features.EnableEvents != nil {
		r.domain.EnableEvents = *d.Features.EnableEvents
	}
	if d.Features.EnableSearchIndexing != nil {
		r.domain.EnableSearchIndexing = *d.Features.EnableSearchIndexing
	}

	r.logger.Info("Runtime configuration applied",
		zap.String("version", d.Metadata.Version),
		zap.Int("batchSize", r.domain.BatchSize),
		zap.Int("maxNodesPerRequest", r.domain.MaxNodesPerRequest),
		zap.Int("defaultListLimit", r.domain.DefaultListLimit),
	)
}

// Stop stops watching the config file.
func (r *Runtime) Stop() {
	if r.watcher != nil {
		r.watcher.Stop()
	}
}
