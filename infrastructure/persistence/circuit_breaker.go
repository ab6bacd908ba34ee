// Package persistence holds decorators shared by the storage backends.
package persistence

import (
	"context"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"ontology-backend/application/ports"
	"ontology-backend/domain/core/entities"
	"ontology-backend/infrastructure/resilience"
)

// CircuitBreakerNodeRepository stops calling the node store while it keeps
// failing, answering 503 instead of piling up timeouts.
type CircuitBreakerNodeRepository struct {
	inner ports.NodeRepository
	cb    *gobreaker.CircuitBreaker
}

var _ ports.NodeRepository = (*CircuitBreakerNodeRepository)(nil)

// NewCircuitBreakerNodeRepository wraps inner with a breaker.
func NewCircuitBreakerNodeRepository(inner ports.NodeRepository, cfg resilience.BreakerConfig, logger *zap.Logger) *CircuitBreakerNodeRepository {
	return &CircuitBreakerNodeRepository{inner: inner, cb: resilience.NewBreaker(cfg, logger)}
}

const nodeStore = "node-store"

func (r *CircuitBreakerNodeRepository) GetByID(ctx context.Context, id string) (*entities.Node, error) {
	return resilience.Call(r.cb, nodeStore, func() (*entities.Node, error) {
		return r.inner.GetByID(ctx, id)
	})
}

func (r *CircuitBreakerNodeRepository) GetMany(ctx context.Context, ids []string) (map[string]*entities.Node, error) {
	return resilience.Call(r.cb, nodeStore, func() (map[string]*entities.Node, error) {
		return r.inner.GetMany(ctx, ids)
	})
}

func (r *CircuitBreakerNodeRepository) Save(ctx context.Context, node *entities.Node) error {
	_, err := resilience.Call(r.cb, nodeStore, func() (struct{}, error) {
		return struct{}{}, r.inner.Save(ctx, node)
	})
	return err
}

type page struct {
	nodes []*entities.Node
	total int
}

func (r *CircuitBreakerNodeRepository) List(ctx context.Context, filter ports.NodeFilter) ([]*entities.Node, int, error) {
	p, err := resilience.Call(r.cb, nodeStore, func() (page, error) {
		nodes, total, err := r.inner.List(ctx, filter)
		return page{nodes: nodes, total: total}, err
	})
	if err != nil {
		return nil, 0, err
	}
	return p.nodes, p.total, nil
}

// State returns the breaker state for health reporting.
func (r *CircuitBreakerNodeRepository) State() gobreaker.State {
	return r.cb.State()
}
