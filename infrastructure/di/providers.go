package di

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ontology-backend/application/commands/bus"
	cmdhandlers "ontology-backend/application/commands/handlers"
	"ontology-backend/application/ports"
	querybus "ontology-backend/application/queries/bus"
	queryhandlers "ontology-backend/application/queries/handlers"
	"ontology-backend/application/services"
	"ontology-backend/infrastructure/config"
	"ontology-backend/infrastructure/messaging/eventbridge"
	"ontology-backend/infrastructure/persistence"
	"ontology-backend/infrastructure/persistence/dynamodb"
	"ontology-backend/infrastructure/persistence/memory"
	"ontology-backend/infrastructure/resilience"
	"ontology-backend/infrastructure/search"
	"ontology-backend/interfaces/http/rest"
	"ontology-backend/pkg/auth"
	"ontology-backend/pkg/common"
	pkgerrors "ontology-backend/pkg/errors"
	"ontology-backend/pkg/observability"
)

// Logging is the process logger and the level the config watcher adjusts.
type Logging struct {
	Logger *zap.Logger
	Level  zap.AtomicLevel
}

// ProvideLogging builds the logger from the static configuration.
func ProvideLogging(cfg *config.Config) (*Logging, func(), error) {
	logger, level, err := cfg.NewLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	cleanup := func() {
		_ = logger.Sync()
	}
	return &Logging{Logger: logger, Level: level}, cleanup, nil
}

// ProvideLogger exposes the process logger.
func ProvideLogger(l *Logging) *zap.Logger {
	return l.Logger
}

// ProvideRuntime starts watching CONFIG_FILE, when set.
func ProvideRuntime(cfg *config.Config, l *Logging) (*config.Runtime, func(), error) {
	rt, err := config.NewRuntime(cfg.ConfigFile, cfg.Domain, l.Level, l.Logger)
	if err != nil {
		return nil, nil, err
	}
	return rt, rt.Stop, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if cfg.EnableXRay {
		observability.InstrumentAWS(&awsCfg)
	}
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// Storage groups the persistence ports of one backend.
type Storage struct {
	Nodes   ports.NodeRepository
	Batch   ports.WriteBatch
	Changes ports.ChangeLogRepository
	APIKeys ports.APIKeyRepository
	Locker  ports.Locker
}

// ProvideStorage selects the backend named by STORAGE_BACKEND.
func ProvideStorage(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) *Storage {
	if cfg.StorageBackend == config.StorageMemory {
		logger.Warn("Using in-memory storage; data is lost on restart")
		nodes := memory.NewNodeStore()
		return &Storage{
			Nodes:   nodes,
			Batch:   nodes,
			Changes: memory.NewChangeLogStore(),
			APIKeys: memory.NewAPIKeyStore(),
			Locker:  memory.NewLocker(),
		}
	}
	return &Storage{
		Nodes:   dynamodb.NewNodeRepository(client, cfg.NodesTable, cfg.NodeTypeIndex, logger),
		Batch:   dynamodb.NewWriteBatch(client, cfg.NodesTable, cfg.Domain, logger),
		Changes: dynamodb.NewChangeLogRepository(client, cfg.ChangeLogTable, cfg.ChangeLogIndex, logger),
		APIKeys: dynamodb.NewAPIKeyRepository(client, cfg.APIKeysTable, cfg.APIKeyIndex, logger),
		Locker:  dynamodb.NewDistributedLock(client, cfg.LocksTable, logger),
	}
}

// ProvideNodeRepository puts the node store behind a circuit breaker.
func ProvideNodeRepository(s *Storage, logger *zap.Logger) ports.NodeRepository {
	return persistence.NewCircuitBreakerNodeRepository(s.Nodes, resilience.DefaultBreakerConfig("node-store"), logger)
}

// ProvideEventPublisher publishes to EventBridge, or records events in
// memory when running without AWS.
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if cfg.StorageBackend == config.StorageMemory {
		return memory.NewEventLog()
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, cfg.EventSource, logger)
}

// ProvideSearchIndexer talks to the search service at SEARCH_INDEX_URL.
// Without one, documents go to an in-memory index.
func ProvideSearchIndexer(cfg *config.Config, logger *zap.Logger) ports.SearchIndexer {
	if cfg.SearchIndexURL == "" {
		logger.Info("SEARCH_INDEX_URL not set; search documents are kept in memory")
		return memory.NewSearchIndex()
	}
	breaker := resilience.DefaultBreakerConfig("search-index")
	if cfg.SearchBreakerFailures > 0 {
		breaker.MinRequests = uint32(cfg.SearchBreakerFailures)
	}
	return search.NewClient(cfg.SearchIndexURL, cfg.SearchIndexTimeout, breaker, logger)
}

// ProvideCollector creates the Prometheus collector.
func ProvideCollector() *observability.Collector {
	return observability.NewCollector("ontology")
}

// ProvideMetrics fans measurements out to Prometheus and, when enabled,
// CloudWatch.
func ProvideMetrics(cfg *config.Config, collector *observability.Collector, client *awscloudwatch.Client, logger *zap.Logger) observability.Sinks {
	sinks := observability.Sinks{collector}
	if cfg.EnableCloudWatch {
		namespace := fmt.Sprintf("%s/%s", cfg.CloudWatchNamespace, cfg.Environment)
		sinks = append(sinks, observability.NewCloudWatchMetrics(namespace, client, logger))
	}
	return sinks
}

// ProvideTracer exports spans over OTLP when tracing is enabled.
func ProvideTracer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.Tracer, func(), error) {
	if !cfg.EnableTracing {
		return observability.NewNoopTracer(), func() {}, nil
	}
	tracer, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: "ontology-backend",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	cleanup := func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			logger.Error("Tracer shutdown failed", zap.Error(err))
		}
	}
	return tracer, cleanup, nil
}

// ProvideMutator creates the propagating write path.
func ProvideMutator(
	s *Storage,
	nodes ports.NodeRepository,
	publisher ports.EventPublisher,
	indexer *services.SearchIndexService,
	metrics observability.Sinks,
	cfg *config.Config,
	logger *zap.Logger,
) *services.Mutator {
	return services.NewMutator(nodes, s.Batch, s.Changes, publisher, s.Locker, indexer, metrics, cfg.Domain, logger)
}

// busLogger adapts zap to the command bus logger.
type busLogger struct {
	s *zap.SugaredLogger
}

func (l busLogger) Info(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l busLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	mutator *services.Mutator,
	indexer *services.SearchIndexService,
	metrics observability.Sinks,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(busLogger{logger.Sugar()}),
		bus.MetricsMiddleware(metrics),
		bus.TracingMiddleware(tracer),
	)
	handlers := &cmdhandlers.Handlers{
		Nodes:       cmdhandlers.NewNodeHandler(mutator, logger),
		Properties:  cmdhandlers.NewPropertyHandler(mutator, logger),
		Inheritance: cmdhandlers.NewInheritanceHandler(mutator, logger),
		Links:       cmdhandlers.NewLinkHandler(mutator, logger),
		Collections: cmdhandlers.NewCollectionHandler(mutator, logger),
		Search:      cmdhandlers.NewSearchHandler(indexer, logger),
	}
	if err := handlers.Register(commandBus); err != nil {
		return nil, fmt.Errorf("failed to register command handlers: %w", err)
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(nodes ports.NodeRepository, s *Storage, cfg *config.Config, logger *zap.Logger) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()
	handlers := &queryhandlers.Handlers{
		Nodes:   queryhandlers.NewNodeQueryHandler(nodes, cfg.Domain, logger),
		Changes: queryhandlers.NewChangesQueryHandler(services.NewChangeLogService(s.Changes, cfg.Domain), logger),
	}
	if err := handlers.Register(queryBus); err != nil {
		return nil, fmt.Errorf("failed to register query handlers: %w", err)
	}
	return queryBus, nil
}

// ProvideAPIKeyService creates the API key service.
func ProvideAPIKeyService(s *Storage, logger *zap.Logger) *services.APIKeyService {
	return services.NewAPIKeyService(s.APIKeys, logger)
}

// ProvideTokenValidator validates the bearer tokens of the key management
// routes. Outside production a missing JWT_SECRET gets a random one, which
// rejects every token from elsewhere.
func ProvideTokenValidator(cfg *config.Config, logger *zap.Logger) (*auth.JWTValidator, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set; key management routes will reject all tokens")
		secret = uuid.New().String()
	}
	return auth.NewJWTValidator(auth.JWTConfig{SecretKey: secret, Issuer: cfg.JWTIssuer})
}

// ProvideRateLimiter limits requests per API client.
func ProvideRateLimiter(cfg *config.Config) auth.RateLimiter {
	return auth.NewClientRateLimiter(cfg.RateLimitPerMinute)
}

// ProvideErrorHandler renders errors in the response envelope.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment()).WithClientIDResolver(func(r *http.Request) string {
		return common.GetClientID(r.Context())
	})
}

// ProvideRouter creates the REST router.
func ProvideRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	keys *services.APIKeyService,
	limiter auth.RateLimiter,
	tokens *auth.JWTValidator,
	collector *observability.Collector,
	errorHandler *pkgerrors.ErrorHandler,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	opts := rest.Options{
		EnableCORS:     cfg.EnableCORS,
		AllowedOrigins: cfg.AllowedOrigins,
	}
	if cfg.EnableMetrics {
		opts.MetricsHandler = collector.Handler()
		opts.HTTPMetrics = collector
	}
	return rest.NewRouter(commandBus, queryBus, keys, limiter, tokens, cfg.Domain, errorHandler, logger, opts)
}

// ProvideHTTPHandler builds the routes.
func ProvideHTTPHandler(router *rest.Router) http.Handler {
	return router.Setup()
}
