// Package mocks provides testify mocks of the application ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ontology-backend/application/ports"
	"ontology-backend/domain/changelog"
	"ontology-backend/domain/core/entities"
	"ontology-backend/domain/events"
)

// MockNodeRepository mocks ports.NodeRepository
type MockNodeRepository struct {
	mock.Mock
}

func (m *MockNodeRepository) GetByID(ctx context.Context, id string) (*entities.Node, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Node), args.Error(1)
}

func (m *MockNodeRepository) GetMany(ctx context.Context, ids []string) (map[string]*entities.Node, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*entities.Node), args.Error(1)
}

func (m *MockNodeRepository) Save(ctx context.Context, node *entities.Node) error {
	args := m.Called(ctx, node)
	return args.Error(0)
}

func (m *MockNodeRepository) List(ctx context.Context, filter ports.NodeFilter) ([]*entities.Node, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*entities.Node), args.Int(1), args.Error(2)
}

// MockChangeLogRepository mocks ports.ChangeLogRepository
type MockChangeLogRepository struct {
	mock.Mock
}

func (m *MockChangeLogRepository) SaveBatch(ctx context.Context, changes []changelog.NodeChange) error {
	args := m.Called(ctx, changes)
	return args.Error(0)
}

func (m *MockChangeLogRepository) ListByNode(ctx context.Context, nodeID string, limit, offset int) ([]changelog.NodeChange, int, error) {
	args := m.Called(ctx, nodeID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]changelog.NodeChange), args.Int(1), args.Error(2)
}

// MockEventPublisher mocks ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, evs []events.DomainEvent) error {
	args := m.Called(ctx, evs)
	return args.Error(0)
}

// MockSearchIndexer mocks ports.SearchIndexer
type MockSearchIndexer struct {
	mock.Mock
}

func (m *MockSearchIndexer) Upsert(ctx context.Context, docs []ports.SearchDocument) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

func (m *MockSearchIndexer) Remove(ctx context.Context, collection string, ids []string) error {
	args := m.Called(ctx, collection, ids)
	return args.Error(0)
}

// MockMetrics mocks ports.Metrics
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) ObservePropagation(operation string, nodesWritten int) {
	m.Called(operation, nodesWritten)
}

func (m *MockMetrics) IncLockContention() {
	m.Called()
}
