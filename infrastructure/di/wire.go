//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"ontology-backend/application/services"
	"ontology-backend/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogging,
	ProvideLogger,
	ProvideRuntime,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideStorage,
	ProvideNodeRepository,
	ProvideEventPublisher,
	ProvideSearchIndexer,
	services.NewSearchIndexService,
	ProvideCollector,
	ProvideMetrics,
	ProvideTracer,
	ProvideMutator,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideAPIKeyService,
	ProvideTokenValidator,
	ProvideRateLimiter,
	ProvideErrorHandler,
	ProvideRouter,
	ProvideHTTPHandler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
