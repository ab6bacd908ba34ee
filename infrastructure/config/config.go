package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	domainconfig "ontology-backend/domain/config"
)

// Storage backends selectable through STORAGE_BACKEND.
const (
	StorageDynamoDB = "dynamodb"
	StorageMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress   string
	Environment     string
	ShutdownTimeout time.Duration

	// Storage
	StorageBackend string
	AWSRegion      string
	NodesTable     string
	ChangeLogTable string
	APIKeysTable   string
	LocksTable     string
	NodeTypeIndex  string
	ChangeLogIndex string
	APIKeyIndex    string

	// Messaging
	EventBusName string
	EventSource  string

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// WebSocket configuration
	WebSocketEndpoint string
	ConnectionsTable  string
	SupabaseURL       string
	SupabaseKey       string

	// Search indexing
	SearchIndexURL        string
	SearchCollection      string
	SearchIndexTimeout    time.Duration
	SearchBreakerFailures int

	// Logging
	LogLevel string

	// Authentication
	JWTSecret          string
	JWTIssuer          string
	RateLimitPerMinute int

	// Observability
	EnableMetrics       bool
	EnableTracing       bool
	EnableCloudWatch    bool
	EnableXRay          bool
	OTLPEndpoint        string
	CloudWatchNamespace string

	// HTTP
	EnableCORS     bool
	AllowedOrigins []string

	// ConfigFile points at the optional YAML file with runtime limits.
	ConfigFile string

	Domain *domainconfig.DomainConfig
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	domain := domainconfig.DefaultDomainConfig()
	domain.BatchSize = getEnvInt("BATCH_SIZE", domain.BatchSize)
	domain.TransactionSize = getEnvInt("TRANSACTION_SIZE", domain.TransactionSize)
	domain.MaxNodesPerRequest = getEnvInt("MAX_NODES_PER_REQUEST", domain.MaxNodesPerRequest)
	domain.DefaultListLimit = getEnvInt("DEFAULT_LIST_LIMIT", domain.DefaultListLimit)
	domain.LockTTL = getEnvDuration("LOCK_TTL", domain.LockTTL)
	domain.LockAcquireTimeout = getEnvDuration("LOCK_ACQUIRE_TIMEOUT", domain.LockAcquireTimeout)
	domain.SystemUser = getEnv("SYSTEM_USER", domain.SystemUser)
	domain.EnableEvents = getEnvBool("ENABLE_EVENTS", domain.EnableEvents)
	domain.EnableSearchIndexing = getEnvBool("ENABLE_SEARCH_INDEXING", domain.EnableSearchIndexing)

	cfg := &Config{
		ServerAddress:   getEnv("SERVER_ADDRESS", ":8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		StorageBackend: getEnv("STORAGE_BACKEND", StorageDynamoDB),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		NodesTable:     getEnv("NODES_TABLE", "ontology-nodes"),
		ChangeLogTable: getEnv("CHANGELOG_TABLE", "ontology-changelog"),
		APIKeysTable:   getEnv("API_KEYS_TABLE", "ontology-api-keys"),
		LocksTable:     getEnv("LOCKS_TABLE", "ontology-locks"),
		NodeTypeIndex:  getEnv("NODE_TYPE_INDEX", "NodeTypeIndex"),
		ChangeLogIndex: getEnv("CHANGELOG_INDEX", "NodeChangesIndex"),
		APIKeyIndex:    getEnv("API_KEY_USER_INDEX", "UserIndex"),

		EventBusName: getEnv("EVENT_BUS_NAME", "ontology-events"),
		EventSource:  getEnv("EVENT_SOURCE", "ontology.backend"),

		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		WebSocketEndpoint: getEnv("WEBSOCKET_ENDPOINT", ""),
		ConnectionsTable:  getEnv("CONNECTIONS_TABLE", "ontology-connections"),
		SupabaseURL:       getEnv("SUPABASE_URL", ""),
		SupabaseKey:       getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),

		SearchIndexURL:        getEnv("SEARCH_INDEX_URL", ""),
		SearchCollection:      getEnv("SEARCH_COLLECTION", "ontology"),
		SearchIndexTimeout:    getEnvDuration("SEARCH_INDEX_TIMEOUT", 5*time.Second),
		SearchBreakerFailures: getEnvInt("SEARCH_BREAKER_FAILURES", 5),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", "ontology-backend"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 600),

		EnableMetrics:       getEnvBool("ENABLE_METRICS", true),
		EnableTracing:       getEnvBool("ENABLE_TRACING", false),
		EnableCloudWatch:    getEnvBool("ENABLE_CLOUDWATCH", false),
		EnableXRay:          getEnvBool("ENABLE_XRAY", false),
		OTLPEndpoint:        getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", "Ontology"),

		EnableCORS:     getEnvBool("ENABLE_CORS", true),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"*"}),

		ConfigFile: getEnv("CONFIG_FILE", ""),

		Domain: domain,
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageDynamoDB, StorageMemory:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q", StorageDynamoDB, StorageMemory)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.StorageBackend != StorageDynamoDB {
			return fmt.Errorf("STORAGE_BACKEND must be %q in production", StorageDynamoDB)
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
	}
	if c.Domain == nil {
		return fmt.Errorf("domain configuration is missing")
	}
	return c.Domain.Validate()
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// NewLogger builds the process logger. The returned level can be changed at
// runtime by the config watcher.
func (c *Config) NewLogger() (*zap.Logger, zap.AtomicLevel, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, level, err
	}

	var zc zap.Config
	if c.IsProduction() || c.IsLambda {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = level
	zc.OutputPaths = []string{"stdout"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, level, err
	}
	return logger.With(zap.String("environment", c.Environment)), level, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
