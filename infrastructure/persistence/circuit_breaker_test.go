package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ontology-backend/application/ports"
	"ontology-backend/domain/core/entities"
	"ontology-backend/infrastructure/resilience"
	pkgerrors "ontology-backend/pkg/errors"
	"ontology-backend/tests/fixtures"
	"ontology-backend/tests/mocks"
)

func TestCircuitBreakerNodeRepository_PassesThrough(t *testing.T) {
	// Arrange
	inner := new(mocks.MockNodeRepository)
	node := fixtures.NewNodeBuilder().WithID("a").MustBuild()
	inner.On("GetByID", mock.Anything, "a").Return(node, nil)
	inner.On("List", mock.Anything, ports.NodeFilter{Limit: 10}).Return([]*entities.Node{node}, 1, nil)
	repo := NewCircuitBreakerNodeRepository(inner, resilience.DefaultBreakerConfig("nodes"), zap.NewNop())

	// Act
	got, err := repo.GetByID(context.Background(), "a")
	page, total, listErr := repo.List(context.Background(), ports.NodeFilter{Limit: 10})

	// Assert
	require.NoError(t, err)
	require.NoError(t, listErr)
	assert.Same(t, node, got)
	assert.Equal(t, 1, total)
	assert.Len(t, page, 1)
	inner.AssertExpectations(t)
}

func TestCircuitBreakerNodeRepository_OpensOnStoreFailures(t *testing.T) {
	// Arrange
	inner := new(mocks.MockNodeRepository)
	storeErr := pkgerrors.NewDatabaseError("GetNode", errors.New("connection reset"))
	inner.On("GetByID", mock.Anything, "a").Return(nil, storeErr)
	repo := NewCircuitBreakerNodeRepository(inner, resilience.DefaultBreakerConfig("nodes"), zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repo.GetByID(ctx, "a")
		require.ErrorIs(t, err, storeErr)
	}

	// Act
	_, err := repo.GetByID(ctx, "a")

	// Assert
	assert.Equal(t, gobreaker.StateOpen, repo.State())
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
	inner.AssertNumberOfCalls(t, "GetByID", 5)
}

func TestCircuitBreakerNodeRepository_DomainErrorsDoNotTrip(t *testing.T) {
	inner := new(mocks.MockNodeRepository)
	inner.On("GetByID", mock.Anything, "missing").Return(nil, pkgerrors.NodeNotFound("missing"))
	repo := NewCircuitBreakerNodeRepository(inner, resilience.DefaultBreakerConfig("nodes"), zap.NewNop())

	for i := 0; i < 10; i++ {
		_, err := repo.GetByID(context.Background(), "missing")
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNodeNotFound))
	}

	assert.Equal(t, gobreaker.StateClosed, repo.State())
}

func TestCircuitBreakerNodeRepository_SaveAndGetMany(t *testing.T) {
	inner := new(mocks.MockNodeRepository)
	node := fixtures.NewNodeBuilder().WithID("a").MustBuild()
	inner.On("Save", mock.Anything, node).Return(nil)
	inner.On("GetMany", mock.Anything, []string{"a"}).Return(map[string]*entities.Node{"a": node}, nil)
	repo := NewCircuitBreakerNodeRepository(inner, resilience.DefaultBreakerConfig("nodes"), zap.NewNop())

	require.NoError(t, repo.Save(context.Background(), node))
	many, err := repo.GetMany(context.Background(), []string{"a"})

	require.NoError(t, err)
	assert.Len(t, many, 1)
}
