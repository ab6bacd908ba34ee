package inheritance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "ontology-backend/domain/core/valueobjects"
	"ontology-backend/tests/fixtures"
)

func TestExportTree(t *testing.T) {
	// Arrange
	nodes := fixtures.Index(
		fixtures.NewNodeBuilder().WithID("who").WithTitle("WHO: Actors").AsCategory().
			WithProperty("description", "people", vo.TypeString).
			WithParts("tool").
			MustBuild(),
		fixtures.NewNodeBuilder().WithID("what").WithTitle("WHAT: Activities and Objects").AsCategory().MustBuild(),
		fixtures.NewNodeBuilder().WithID("welder").WithTitle(" Welder ").
			WithInheritedProperty("description", "stale", "who", vo.InheritUnlessAlreadyOverRidden).
			WithRule("parts", "who", vo.InheritUnlessAlreadyOverRidden).
			MustBuild(),
		fixtures.NewNodeBuilder().WithID("tool").WithTitle("Tool").MustBuild(),
		fixtures.NewNodeBuilder().WithID("hammer").WithTitle("Hammer").MustBuild(),
	)
	fixtures.Hierarchy(nodes, [2]string{"who", "welder"}, [2]string{"what", "tool"})
	nodes["tool"].Specializations.Add(vo.Link{ID: "hammer"}, "hand")
	nodes["hammer"].Generalizations.Add(vo.Link{ID: "tool"}, "")
	g := NewGraph(nodes["who"], nodes["what"], nodes["welder"], nodes["tool"], nodes["hammer"])

	// Act
	tree := ExportTree(g)

	// Assert
	require.Len(t, tree, 2)
	assert.Equal(t, "WHAT: Activities and Objects", tree[0].Title)
	assert.Equal(t, "WHO: Actors", tree[1].Title)

	require.Len(t, tree[1].Specializations, 1)
	welder := tree[1].Specializations[0]
	assert.Equal(t, "Welder", welder.Title)
	assert.Equal(t, "people", welder.Description)
	assert.Equal(t, []string{"Tool"}, welder.Parts)
	assert.Equal(t, []string{"WHO: Actors"}, welder.Generalizations)

	require.Len(t, tree[0].Specializations, 1)
	tool := tree[0].Specializations[0]
	require.Len(t, tool.Specializations, 1)
	group := tool.Specializations[0]
	assert.Equal(t, "[hand]", group.Title)
	require.Len(t, group.Specializations, 1)
	assert.Equal(t, "Hammer", group.Specializations[0].Title)
}

func TestExportTree_CyclesAreCut(t *testing.T) {
	nodes := fixtures.Index(
		fixtures.NewNodeBuilder().WithID("A").WithTitle("A").AsCategory().MustBuild(),
		fixtures.NewNodeBuilder().WithID("B").WithTitle("B").MustBuild(),
	)
	fixtures.Hierarchy(nodes, [2]string{"A", "B"}, [2]string{"B", "A"})

	tree := ExportTree(NewGraph(nodes["A"], nodes["B"]))

	require.Len(t, tree, 1)
	require.Len(t, tree[0].Specializations, 1)
	assert.Empty(t, tree[0].Specializations[0].Specializations)
}
