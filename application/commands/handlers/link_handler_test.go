package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ontology-backend/application/commands"
	"ontology-backend/domain/changelog"
	"ontology-backend/domain/core/entities"
	vo "ontology-backend/domain/core/valueobjects"
	"ontology-backend/domain/events"
	pkgerrors "ontology-backend/pkg/errors"
	"ontology-backend/tests/fixtures"
)

func TestLinkHandler_AddGeneralization(t *testing.T) {
	// Arrange
	nodes := fixtures.Index(
		fixtures.NewNodeBuilder().WithID("P1").MustBuild(),
		fixtures.NewNodeBuilder().WithID("P2").WithProperty("extra", "x", vo.TypeString).MustBuild(),
		fixtures.NewNodeBuilder().WithID("N").MustBuild(),
	)
	fixtures.Hierarchy(nodes, [2]string{"P1", "N"})
	env := newTestEnv(nodes["P1"], nodes["P2"], nodes["N"])
	handler := NewLinkHandler(env.mutator, zap.NewNop())

	// Act
	err := handler.AddLinks(context.Background(), commands.AddLinksCommand{
		Audit:    testAudit(),
		NodeID:   "N",
		Relation: string(entities.RelationGeneralizations),
		Nodes:    []vo.Link{{ID: "P2"}},
	})

	// Assert
	require.NoError(t, err)
	n := env.node(t, "N")
	assert.Equal(t, []string{"P1", "P2"}, n.Generalizations.IDs())
	assert.Equal(t, 2, n.NumberOfGeneralizations)
	assert.Equal(t, "x", n.Properties["extra"])
	assert.Equal(t, "P2", n.Inheritance["extra"].RefID())
	assert.True(t, env.node(t, "P2").Specializations.Contains("N"))
	assert.Equal(t, []changelog.ChangeType{changelog.ChangeAddElement}, env.changeTypes("N"))
	assert.Contains(t, env.events.Types(), events.TypeNodeLinksChanged)
}

func TestLinkHandler_AddLinksRejections(t *testing.T) {
	newEnv := func() *testEnv {
		nodes := fixtures.Index(
			fixtures.NewNodeBuilder().WithID("root").MustBuild(),
			fixtures.NewNodeBuilder().WithID("leaf").MustBuild(),
			fixtures.NewNodeBuilder().WithID("gone").Deleted().MustBuild(),
		)
		fixtures.Hierarchy(nodes, [2]string{"root", "leaf"})
		return newTestEnv(nodes["root"], nodes["leaf"], nodes["gone"])
	}

	tests := []struct {
		name     string
		nodeID   string
		relation entities.Relation
		target   string
		code     string
	}{
		{name: "already linked", nodeID: "root", relation: entities.RelationSpecializations, target: "leaf", code: pkgerrors.CodeValidation},
		{name: "deleted target", nodeID: "root", relation: entities.RelationSpecializations, target: "gone", code: pkgerrors.CodeNodeDeleted},
		{name: "unknown target", nodeID: "root", relation: entities.RelationParts, target: "ghost", code: pkgerrors.CodeNodeNotFound},
		{name: "cycle", nodeID: "root", relation: entities.RelationGeneralizations, target: "leaf", code: pkgerrors.CodeCircularReference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv()
			handler := NewLinkHandler(env.mutator, zap.NewNop())

			err := handler.AddLinks(context.Background(), commands.AddLinksCommand{
				Audit:    testAudit(),
				NodeID:   tt.nodeID,
				Relation: string(tt.relation),
				Nodes:    []vo.Link{{ID: tt.target}},
			})

			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, tt.code), err.Error())
			assert.Empty(t, env.changes.All())
		})
	}
}

func TestLinkHandler_AddParts(t *testing.T) {
	env := newTestEnv(
		fixtures.NewNodeBuilder().WithID("car").MustBuild(),
		fixtures.NewNodeBuilder().WithID("engine").MustBuild(),
	)
	handler := NewLinkHandler(env.mutator, zap.NewNop())

	err := handler.AddLinks(context.Background(), commands.AddLinksCommand{
		Audit:    testAudit(),
		NodeID:   "car",
		Relation: string(entities.RelationParts),
		Nodes:    []vo.Link{{ID: "engine"}},
	})

	require.NoError(t, err)
	assert.True(t, env.node(t, "car").Relation(entities.RelationParts).Contains("engine"))
	assert.True(t, env.node(t, "engine").Relation(entities.RelationIsPartOf).Contains("car"))
}

func TestLinkHandler_RemoveLastGeneralization(t *testing.T) {
	nodes := fixtures.Index(
		fixtures.NewNodeBuilder().WithID("P").MustBuild(),
		fixtures.NewNodeBuilder().WithID("N").MustBuild(),
	)
	fixtures.Hierarchy(nodes, [2]string{"P", "N"})
	env := newTestEnv(nodes["P"], nodes["N"])
	handler := NewLinkHandler(env.mutator, zap.NewNop())

	err := handler.RemoveLinks(context.Background(), commands.RemoveLinksCommand{
		Audit:    testAudit(),
		NodeID:   "N",
		Relation: string(entities.RelationGeneralizations),
		Nodes:    []vo.Link{{ID: "P"}},
	})

	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeLastGeneralization))
	assert.True(t, env.node(t, "P").Specializations.Contains("N"))
}

func TestLinkHandler_RemoveGeneralization(t *testing.T) {
	// Arrange
	nodes := fixtures.Index(
		fixtures.NewNodeBuilder().WithID("A").WithProperty("onlyA", "x", vo.TypeString).MustBuild(),
		fixtures.NewNodeBuilder().WithID("B").MustBuild(),
		fixtures.NewNodeBuilder().WithID("N").
			WithInheritedProperty("onlyA", "x", "A", vo.InheritUnlessAlreadyOverRidden).
			MustBuild(),
	)
	fixtures.Hierarchy(nodes, [2]string{"B", "N"}, [2]string{"A", "N"})
	env := newTestEnv(nodes["A"], nodes["B"], nodes["N"])
	handler := NewLinkHandler(env.mutator, zap.NewNop())

	// Act
	err := handler.RemoveLinks(context.Background(), commands.RemoveLinksCommand{
		Audit:    testAudit(),
		NodeID:   "N",
		Relation: string(entities.RelationGeneralizations),
		Nodes:    []vo.Link{{ID: "A"}},
	})

	// Assert
	require.NoError(t, err)
	n := env.node(t, "N")
	assert.Equal(t, []string{"B"}, n.Generalizations.IDs())
	assert.False(t, n.HasProperty("onlyA"))
	assert.False(t, env.node(t, "A").Specializations.Contains("N"))
}

func TestLinkHandler_MoveAndReorder(t *testing.T) {
	// Arrange
	p := fixtures.NewNodeBuilder().WithID("P").WithSpecializations("a", "b", "c").MustBuild()
	require.NoError(t, p.Specializations.CreateCollection("tools"))
	env := newTestEnv(p)
	handler := NewLinkHandler(env.mutator, zap.NewNop())
	ctx := context.Background()

	// Act
	err := handler.MoveLinks(ctx, commands.MoveLinksCommand{
		Audit:            testAudit(),
		NodeID:           "P",
		Relation:         string(entities.RelationSpecializations),
		Nodes:            []vo.Link{{ID: "b"}},
		SourceCollection: vo.MainCollection,
		TargetCollection: "tools",
	})
	require.NoError(t, err)
	err = handler.ReorderLinks(ctx, commands.ReorderLinksCommand{
		Audit:      testAudit(),
		NodeID:     "P",
		Relation:   string(entities.RelationSpecializations),
		Nodes:      []vo.Link{{ID: "c"}},
		NewIndices: []int{0},
	})

	// Assert
	require.NoError(t, err)
	specs := env.node(t, "P").Specializations
	assert.Equal(t, "tools", specs.CollectionOf("b"))
	assert.Equal(t, []string{"c", "a", "b"}, specs.IDs())
	assert.Equal(t,
		[]changelog.ChangeType{changelog.ChangeModifyElements, changelog.ChangeSortElements},
		env.changeTypes("P"))
}

func TestLinkHandler_MoveToUnknownCollection(t *testing.T) {
	env := newTestEnv(fixtures.NewNodeBuilder().WithID("P").WithSpecializations("a").MustBuild())
	handler := NewLinkHandler(env.mutator, zap.NewNop())

	err := handler.MoveLinks(context.Background(), commands.MoveLinksCommand{
		Audit:            testAudit(),
		NodeID:           "P",
		Relation:         string(entities.RelationSpecializations),
		Nodes:            []vo.Link{{ID: "a"}},
		SourceCollection: vo.MainCollection,
		TargetCollection: "nowhere",
	})

	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeCollectionNotFound))
}

func TestLinkHandler_TransferSpecializations(t *testing.T) {
	// Arrange
	nodes := fixtures.Index(
		fixtures.NewNodeBuilder().WithID("S1").WithProperty("legacy", "l", vo.TypeString).MustBuild(),
		fixtures.NewNodeBuilder().WithID("S2").WithProperty("skill", "s", vo.TypeString).MustBuild(),
		fixtures.NewNodeBuilder().WithID("X").
			WithInheritedProperty("legacy", "l", "S1", vo.InheritUnlessAlreadyOverRidden).
			MustBuild(),
	)
	fixtures.Hierarchy(nodes, [2]string{"S1", "X"})
	env := newTestEnv(nodes["S1"], nodes["S2"], nodes["X"])
	handler := NewLinkHandler(env.mutator, zap.NewNop())

	// Act
	err := handler.TransferSpecializations(context.Background(), commands.TransferSpecializationsCommand{
		Audit:        testAudit(),
		NodeID:       "S1",
		TargetNodeID: "S2",
		Nodes:        []vo.Link{{ID: "X"}},
	})

	// Assert
	require.NoError(t, err)
	x := env.node(t, "X")
	assert.Equal(t, []string{"S2"}, x.Generalizations.IDs())
	assert.False(t, x.HasProperty("legacy"))
	assert.Equal(t, "s", x.Properties["skill"])
	assert.Equal(t, "S2", x.Inheritance["skill"].RefID())
	assert.False(t, env.node(t, "S1").Specializations.Contains("X"))
	assert.True(t, env.node(t, "S2").Specializations.Contains("X"))
}

func TestLinkHandler_TransferRequiresMembership(t *testing.T) {
	env := newTestEnv(
		fixtures.NewNodeBuilder().WithID("S1").MustBuild(),
		fixtures.NewNodeBuilder().WithID("S2").MustBuild(),
		fixtures.NewNodeBuilder().WithID("X").MustBuild(),
	)
	handler := NewLinkHandler(env.mutator, zap.NewNop())

	err := handler.TransferSpecializations(context.Background(), commands.TransferSpecializationsCommand{
		Audit:        testAudit(),
		NodeID:       "S1",
		TargetNodeID: "S2",
		Nodes:        []vo.Link{{ID: "X"}},
	})

	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestCollectionHandler_Lifecycle(t *testing.T) {
	// Arrange
	env := newTestEnv(fixtures.NewNodeBuilder().WithID("P").WithSpecializations("a", "b").MustBuild())
	collections := NewCollectionHandler(env.mutator, zap.NewNop())
	links := NewLinkHandler(env.mutator, zap.NewNop())
	ctx := context.Background()
	specs := string(entities.RelationSpecializations)

	// Act
	require.NoError(t, collections.CreateCollections(ctx, commands.CreateCollectionsCommand{
		Audit: testAudit(), NodeID: "P", Relation: specs, Names: []string{"tools", "skills"},
	}))
	require.NoError(t, links.MoveLinks(ctx, commands.MoveLinksCommand{
		Audit: testAudit(), NodeID: "P", Relation: specs, Nodes: []vo.Link{{ID: "a"}},
		SourceCollection: vo.MainCollection, TargetCollection: "tools",
	}))
	require.NoError(t, collections.RenameCollection(ctx, commands.RenameCollectionCommand{
		Audit: testAudit(), NodeID: "P", Relation: specs, CollectionName: "tools", NewName: "equipment",
	}))
	require.NoError(t, collections.SortCollections(ctx, commands.SortCollectionsCommand{
		Audit: testAudit(), NodeID: "P", Relation: specs, Order: []string{"skills", "equipment", vo.MainCollection},
	}))

	// Assert
	p := env.node(t, "P")
	assert.Equal(t, []string{"skills", "equipment", vo.MainCollection}, p.Specializations.Names())
	assert.Equal(t, "equipment", p.Specializations.CollectionOf("a"))

	require.NoError(t, collections.DeleteCollection(ctx, commands.DeleteCollectionCommand{
		Audit: testAudit(), NodeID: "P", Relation: specs, CollectionName: "equipment",
	}))
	p = env.node(t, "P")
	assert.False(t, p.Specializations.Has("equipment"))
	assert.Equal(t, vo.MainCollection, p.Specializations.CollectionOf("a"))
	assert.Contains(t, env.events.Types(), events.TypeCollectionsChanged)
}

func TestCollectionHandler_Errors(t *testing.T) {
	p := fixtures.NewNodeBuilder().WithID("P").MustBuild()
	require.NoError(t, p.Specializations.CreateCollection("tools"))
	env := newTestEnv(p)
	handler := NewCollectionHandler(env.mutator, zap.NewNop())
	ctx := context.Background()
	specs := string(entities.RelationSpecializations)

	err := handler.CreateCollections(ctx, commands.CreateCollectionsCommand{
		Audit: testAudit(), NodeID: "P", Relation: specs, Names: []string{"tools"},
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeCollectionExists))

	err = handler.RenameCollection(ctx, commands.RenameCollectionCommand{
		Audit: testAudit(), NodeID: "P", Relation: specs, CollectionName: "missing", NewName: "other",
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeCollectionNotFound))

	err = handler.DeleteCollection(ctx, commands.DeleteCollectionCommand{
		Audit: testAudit(), NodeID: "P", Relation: specs, CollectionName: "missing",
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeCollectionNotFound))
	assert.Empty(t, env.changes.All())
}
