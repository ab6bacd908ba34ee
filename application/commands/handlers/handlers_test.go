package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ontology-backend/application/commands"
	"ontology-backend/application/services"
	"ontology-backend/domain/changelog"
	"ontology-backend/domain/config"
	"ontology-backend/domain/core/entities"
	"ontology-backend/infrastructure/persistence/memory"
)

type testEnv struct {
	store   *memory.NodeStore
	changes *memory.ChangeLogStore
	events  *memory.EventLog
	mutator *services.Mutator
}

func newTestEnv(nodes ...*entities.Node) *testEnv {
	store := memory.NewNodeStore(nodes...)
	changes := memory.NewChangeLogStore()
	events := memory.NewEventLog()
	m := services.NewMutator(store, store, changes, events, memory.NewLocker(), nil, nil,
		config.DefaultDomainConfig(), zap.NewNop())
	return &testEnv{store: store, changes: changes, events: events, mutator: m}
}

func (e *testEnv) node(t *testing.T, id string) *entities.Node {
	t.Helper()
	n, err := e.store.GetByID(context.Background(), id)
	require.NoError(t, err)
	return n
}

func (e *testEnv) changeTypes(nodeID string) []changelog.ChangeType {
	var out []changelog.ChangeType
	for _, c := range e.changes.All() {
		if c.NodeID == nodeID {
			out = append(out, c.ChangeType)
		}
	}
	return out
}

func testAudit() commands.Audit {
	return commands.Audit{Uname: "alice", Reasoning: "test change"}
}
