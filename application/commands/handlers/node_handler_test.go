package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ontology-backend/application/commands"
	"ontology-backend/domain/changelog"
	vo "ontology-backend/domain/core/valueobjects"
	"ontology-backend/domain/events"
	pkgerrors "ontology-backend/pkg/errors"
	"ontology-backend/tests/fixtures"
)

func TestNodeHandler_CreateNode(t *testing.T) {
	// Arrange
	parent := fixtures.NewNodeBuilder().WithID("P").
		WithProperty("description", "parent description", vo.TypeString).
		WithProperty("skill", "generic", vo.TypeString).
		MustBuild()
	env := newTestEnv(parent)
	handler := NewNodeHandler(env.mutator, zap.NewNop())

	cmd := commands.CreateNodeCommand{
		Audit:           testAudit(),
		NodeID:          "N",
		Title:           "  Child  ",
		NodeType:        string(vo.NodeTypeActivity),
		Properties:      map[string]any{"skill": "specific"},
		Generalizations: vo.NewCollections("P"),
	}

	// Act
	err := handler.CreateNode(context.Background(), cmd)

	// Assert
	require.NoError(t, err)
	n := env.node(t, "N")
	assert.Equal(t, "Child", n.Title)
	assert.Equal(t, []string{"P"}, n.Generalizations.IDs())
	assert.Equal(t, 1, n.NumberOfGeneralizations)
	assert.Equal(t, "parent description", n.Properties["description"])
	assert.Equal(t, "P", n.Inheritance["description"].RefID())
	assert.Equal(t, "specific", n.Properties["skill"])
	assert.Empty(t, n.Inheritance["skill"].RefID())

	assert.True(t, env.node(t, "P").Specializations.Contains("N"))
	assert.Equal(t, []changelog.ChangeType{changelog.ChangeAddNode}, env.changeTypes("N"))
	assert.Equal(t, []string{events.TypeNodeCreated}, env.events.Types())
}

func TestNodeHandler_CreateNodeRejectsBadGeneralizations(t *testing.T) {
	tests := []struct {
		name string
		gen  string
		code string
	}{
		{name: "missing parent", gen: "ghost", code: pkgerrors.CodeNodeNotFound},
		{name: "deleted parent", gen: "gone", code: pkgerrors.CodeNodeDeleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(fixtures.NewNodeBuilder().WithID("gone").Deleted().MustBuild())
			handler := NewNodeHandler(env.mutator, zap.NewNop())

			err := handler.CreateNode(context.Background(), commands.CreateNodeCommand{
				Audit:           testAudit(),
				NodeID:          "N",
				Title:           "Child",
				NodeType:        string(vo.NodeTypeActivity),
				Generalizations: vo.NewCollections(tt.gen),
			})

			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, tt.code))
			assert.Equal(t, 1, env.store.Len())
			assert.Empty(t, env.events.Types())
		})
	}
}

func TestNodeHandler_CloneNode(t *testing.T) {
	// Arrange
	parent := fixtures.NewNodeBuilder().WithID("P").WithTitle("Welder").
		WithProperty("description", "joins metal", vo.TypeString).
		WithProperty(vo.PropertyONetID, "51-4121", vo.TypeString).
		MustBuild()
	env := newTestEnv(parent)
	handler := NewNodeHandler(env.mutator, zap.NewNop())

	// Act
	err := handler.CloneNode(context.Background(), commands.CloneNodeCommand{
		Audit:    testAudit(),
		ParentID: "P",
		NodeID:   "C",
	})

	// Assert
	require.NoError(t, err)
	c := env.node(t, "C")
	assert.Equal(t, "New Welder", c.Title)
	assert.Equal(t, []string{"P"}, c.Generalizations.IDs())
	assert.Equal(t, "joins metal", c.Properties["description"])
	assert.Equal(t, "P", c.Inheritance["description"].RefID())
	assert.False(t, c.HasProperty(vo.PropertyONetID))
	assert.NotContains(t, c.Inheritance, vo.PropertyONetID)
	assert.True(t, env.node(t, "P").Specializations.Contains("C"))
}

func TestNodeHandler_UpdateNodeTitle(t *testing.T) {
	env := newTestEnv(fixtures.NewNodeBuilder().WithID("N").WithTitle("Old").MustBuild())
	handler := NewNodeHandler(env.mutator, zap.NewNop())
	title := "New"

	err := handler.UpdateNode(context.Background(), commands.UpdateNodeCommand{
		Audit:  testAudit(),
		NodeID: "N",
		Title:  &title,
	})

	require.NoError(t, err)
	n := env.node(t, "N")
	assert.Equal(t, "New", n.Title)
	assert.Contains(t, n.Contributors, "alice")
	assert.Equal(t, []changelog.ChangeType{changelog.ChangeText}, env.changeTypes("N"))
	assert.Equal(t, []string{events.TypeNodeUpdated}, env.events.Types())
}

func TestNodeHandler_UpdateNodeRejectsLockedNode(t *testing.T) {
	env := newTestEnv(fixtures.NewNodeBuilder().WithID("N").Locked().MustBuild())
	handler := NewNodeHandler(env.mutator, zap.NewNop())
	title := "New"

	err := handler.UpdateNode(context.Background(), commands.UpdateNodeCommand{
		Audit:  testAudit(),
		NodeID: "N",
		Title:  &title,
	})

	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNodeLocked))
	assert.Empty(t, env.changes.All())
}

func TestNodeHandler_DeleteNode(t *testing.T) {
	// Arrange
	nodes := fixtures.Index(
		fixtures.NewNodeBuilder().WithID("P").MustBuild(),
		fixtures.NewNodeBuilder().WithID("N").WithIsPartOf("W").MustBuild(),
		fixtures.NewNodeBuilder().WithID("W").WithParts("N").MustBuild(),
	)
	fixtures.Hierarchy(nodes, [2]string{"P", "N"})
	env := newTestEnv(nodes["P"], nodes["N"], nodes["W"])
	handler := NewNodeHandler(env.mutator, zap.NewNop())

	// Act
	err := handler.DeleteNode(context.Background(), commands.DeleteNodeCommand{Audit: testAudit(), NodeID: "N"})

	// Assert
	require.NoError(t, err)
	assert.True(t, env.node(t, "N").Deleted)
	assert.False(t, env.node(t, "P").Specializations.Contains("N"))
	assert.False(t, env.node(t, "W").Relation("parts").Contains("N"))
	assert.Equal(t, []changelog.ChangeType{changelog.ChangeDeleteNode}, env.changeTypes("N"))
	assert.Equal(t, []changelog.ChangeType{changelog.ChangeRemoveElement}, env.changeTypes("P"))
	assert.Equal(t, []changelog.ChangeType{changelog.ChangeRemoveElement}, env.changeTypes("W"))
	assert.Equal(t, []string{events.TypeNodeDeleted}, env.events.Types())
}

func TestNodeHandler_DeleteNodeBlockedBySoleParentSpecialization(t *testing.T) {
	nodes := fixtures.Index(
		fixtures.NewNodeBuilder().WithID("P").MustBuild(),
		fixtures.NewNodeBuilder().WithID("C").MustBuild(),
	)
	fixtures.Hierarchy(nodes, [2]string{"P", "C"})
	env := newTestEnv(nodes["P"], nodes["C"])
	handler := NewNodeHandler(env.mutator, zap.NewNop())

	err := handler.DeleteNode(context.Background(), commands.DeleteNodeCommand{Audit: testAudit(), NodeID: "P"})

	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeHasSpecializations))
	assert.False(t, env.node(t, "P").Deleted)
}

func TestNodeHandler_DeleteNodeRehomesSharedSpecialization(t *testing.T) {
	// Arrange
	nodes := fixtures.Index(
		fixtures.NewNodeBuilder().WithID("A").WithProperty("description", "from A", vo.TypeString).MustBuild(),
		fixtures.NewNodeBuilder().WithID("B").WithProperty("description", "from B", vo.TypeString).MustBuild(),
		fixtures.NewNodeBuilder().WithID("S").
			WithInheritedProperty("description", "from A", "A", vo.InheritUnlessAlreadyOverRidden).
			MustBuild(),
	)
	fixtures.Hierarchy(nodes, [2]string{"A", "S"}, [2]string{"B", "S"})
	env := newTestEnv(nodes["A"], nodes["B"], nodes["S"])
	handler := NewNodeHandler(env.mutator, zap.NewNop())

	// Act
	err := handler.DeleteNode(context.Background(), commands.DeleteNodeCommand{Audit: testAudit(), NodeID: "A"})

	// Assert
	require.NoError(t, err)
	s := env.node(t, "S")
	assert.Equal(t, []string{"B"}, s.Generalizations.IDs())
	assert.Equal(t, "from B", s.Properties["description"])
	assert.Equal(t, "B", s.Inheritance["description"].RefID())
}
