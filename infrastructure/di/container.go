// Package di wires the service together.
package di

import (
	"net/http"

	"go.uber.org/zap"

	"ontology-backend/application/commands/bus"
	querybus "ontology-backend/application/queries/bus"
	"ontology-backend/application/services"
	"ontology-backend/infrastructure/config"
	"ontology-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Runtime    *config.Runtime
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	APIKeys    *services.APIKeyService
	Metrics    *observability.Collector
	Handler    http.Handler
}
