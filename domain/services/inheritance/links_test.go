package inheritance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "ontology-backend/domain/core/valueobjects"
	"ontology-backend/tests/fixtures"
)

func TestLinkGeneralizations(t *testing.T) {
	// Arrange
	nodes := fixtures.Index(
		fixtures.NewNodeBuilder().WithID("A").WithProperty("description", "a", vo.TypeString).MustBuild(),
		fixtures.NewNodeBuilder().WithID("N").
			WithProperty("description", "n", vo.TypeString).
			WithProperty("skill", "s", vo.TypeString).
			WithProperty("legacy", "nl", vo.TypeString).
			MustBuild(),
		fixtures.NewNodeBuilder().WithID("S").
			WithInheritedProperty("description", "a", "A", vo.InheritUnlessAlreadyOverRidden).
			WithInheritedProperty("legacy", "l", "X", vo.InheritUnlessAlreadyOverRidden).
			WithInheritedProperty("orphan", "o", "Y", vo.InheritUnlessAlreadyOverRidden).
			MustBuild(),
		fixtures.NewNodeBuilder().WithID("T").
			WithInheritedProperty("description", "a", "A", vo.InheritUnlessAlreadyOverRidden).
			WithInheritedProperty("legacy", "l", "X", vo.InheritUnlessAlreadyOverRidden).
			WithInheritedProperty("orphan", "o", "Y", vo.InheritUnlessAlreadyOverRidden).
			MustBuild(),
	)
	fixtures.Hierarchy(nodes, [2]string{"A", "S"}, [2]string{"N", "S"}, [2]string{"S", "T"})
	g := NewGraph(nodes["A"], nodes["N"], nodes["S"], nodes["T"])

	// Act
	err := LinkGeneralizations(g, "S", []string{"N"})

	// Assert
	require.NoError(t, err)
	for _, id := range []string{"S", "T"} {
		n := mustNode(t, g, id)
		assert.Equal(t, "s", n.Properties["skill"], id)
		assert.Equal(t, "N", n.Inheritance["skill"].RefID(), id)
		assert.Equal(t, "nl", n.Properties["legacy"], id)
		assert.Equal(t, "N", n.Inheritance["legacy"].RefID(), id)
		assert.False(t, n.HasProperty("orphan"), id)
		assert.Equal(t, "a", n.Properties["description"], id)
		assert.Equal(t, "A", n.Inheritance["description"].RefID(), id)
	}
}

func TestUnlinkGeneralization(t *testing.T) {
	// Arrange
	nodes := fixtures.Index(
		fixtures.NewNodeBuilder().WithID("A").
			WithProperty("description", "a", vo.TypeString).
			WithProperty("onlyA", "x", vo.TypeString).
			MustBuild(),
		fixtures.NewNodeBuilder().WithID("B").
			WithProperty("description", "b", vo.TypeString).
			WithProperty("bOnly", "y", vo.TypeString).
			MustBuild(),
		fixtures.NewNodeBuilder().WithID("S").
			WithInheritedProperty("description", "a", "A", vo.InheritUnlessAlreadyOverRidden).
			WithInheritedProperty("onlyA", "x", "A", vo.InheritUnlessAlreadyOverRidden).
			MustBuild(),
		fixtures.NewNodeBuilder().WithID("T").
			WithInheritedProperty("description", "a", "A", vo.InheritUnlessAlreadyOverRidden).
			WithInheritedProperty("onlyA", "x", "A", vo.InheritUnlessAlreadyOverRidden).
			MustBuild(),
	)
	fixtures.Hierarchy(nodes, [2]string{"B", "S"}, [2]string{"S", "T"})
	g := NewGraph(nodes["A"], nodes["B"], nodes["S"], nodes["T"])

	// Act
	err := UnlinkGeneralization(g, "S", "A")

	// Assert
	require.NoError(t, err)
	for _, id := range []string{"S", "T"} {
		n := mustNode(t, g, id)
		assert.Equal(t, "b", n.Properties["description"], id)
		assert.Equal(t, "B", n.Inheritance["description"].RefID(), id)
		assert.False(t, n.HasProperty("onlyA"), id)
		assert.Equal(t, "y", n.Properties["bOnly"], id)
		assert.Equal(t, "B", n.Inheritance["bOnly"].RefID(), id)
	}
}

func TestUnlinkGeneralization_NoRemainingParentIsANoop(t *testing.T) {
	nodes := fixtures.Index(
		fixtures.NewNodeBuilder().WithID("A").WithProperty("description", "a", vo.TypeString).MustBuild(),
		fixtures.NewNodeBuilder().WithID("S").WithInheritedProperty("description", "a", "A", vo.InheritUnlessAlreadyOverRidden).MustBuild(),
	)
	g := NewGraph(nodes["A"], nodes["S"])

	require.NoError(t, UnlinkGeneralization(g, "S", "A"))

	assert.Equal(t, 0, g.Diff().Len())
}

func TestLinkSpecializations(t *testing.T) {
	// Arrange
	nodes := fixtures.Index(
		fixtures.NewNodeBuilder().WithID("G").WithProperty("skill", "s", vo.TypeString).MustBuild(),
		fixtures.NewNodeBuilder().WithID("H").WithProperty("skill", "h", vo.TypeString).MustBuild(),
		fixtures.NewNodeBuilder().WithID("X").MustBuild(),
		fixtures.NewNodeBuilder().WithID("Y").WithInheritedProperty("skill", "s", "G", vo.InheritUnlessAlreadyOverRidden).MustBuild(),
		fixtures.NewNodeBuilder().WithID("Z").WithInheritedProperty("skill", "s", "G", vo.InheritUnlessAlreadyOverRidden).MustBuild(),
	)
	fixtures.Hierarchy(nodes, [2]string{"G", "X"}, [2]string{"H", "Z"})
	g := NewGraph(nodes["G"], nodes["H"], nodes["X"], nodes["Y"], nodes["Z"])

	// Act
	err := LinkSpecializations(g, "G", []string{"X"}, []string{"Y", "Z"})

	// Assert
	require.NoError(t, err)
	x := mustNode(t, g, "X")
	assert.Equal(t, "s", x.Properties["skill"])
	assert.Equal(t, "G", x.Inheritance["skill"].RefID())

	assert.False(t, mustNode(t, g, "Y").HasProperty("skill"))

	z := mustNode(t, g, "Z")
	assert.Equal(t, "h", z.Properties["skill"])
	assert.Equal(t, "H", z.Inheritance["skill"].RefID())
}

func TestSetInheritanceType(t *testing.T) {
	t.Run("alwaysInherit overwrites values inherited from the node", func(t *testing.T) {
		nodes := fixtures.Index(
			fixtures.NewNodeBuilder().WithID("A").WithProperty("description", "new", vo.TypeString).MustBuild(),
			fixtures.NewNodeBuilder().WithID("B").WithInheritedProperty("description", "old", "A", vo.InheritUnlessAlreadyOverRidden).MustBuild(),
			fixtures.NewNodeBuilder().WithID("C").WithInheritedProperty("description", "old", "A", vo.InheritUnlessAlreadyOverRidden).MustBuild(),
		)
		fixtures.Hierarchy(nodes, [2]string{"A", "B"}, [2]string{"B", "C"})
		g := NewGraph(nodes["A"], nodes["B"], nodes["C"])

		changed, err := SetInheritanceType(g, "A", map[string]vo.InheritanceType{"description": vo.AlwaysInherit})

		require.NoError(t, err)
		assert.Equal(t, []string{"description"}, changed)
		assert.Equal(t, vo.AlwaysInherit, mustNode(t, g, "A").Inheritance["description"].InheritanceType)
		assert.Equal(t, "new", mustNode(t, g, "B").Properties["description"])
		assert.Equal(t, "new", mustNode(t, g, "C").Properties["description"])
	})

	t.Run("inheritUnlessAlreadyOverRidden fills missing values only", func(t *testing.T) {
		nodes := fixtures.Index(
			fixtures.NewNodeBuilder().WithID("A").WithProperty("description", "new", vo.TypeString).WithRule("description", "", vo.AlwaysInherit).MustBuild(),
			fixtures.NewNodeBuilder().WithID("B").WithRule("description", "A", vo.InheritUnlessAlreadyOverRidden).MustBuild(),
			fixtures.NewNodeBuilder().WithID("C").WithInheritedProperty("description", "old", "A", vo.InheritUnlessAlreadyOverRidden).MustBuild(),
		)
		fixtures.Hierarchy(nodes, [2]string{"A", "B"}, [2]string{"A", "C"})
		g := NewGraph(nodes["A"], nodes["B"], nodes["C"])

		_, err := SetInheritanceType(g, "A", map[string]vo.InheritanceType{"description": vo.InheritUnlessAlreadyOverRidden})

		require.NoError(t, err)
		assert.Equal(t, "new", mustNode(t, g, "B").Properties["description"])
		assert.Equal(t, "old", mustNode(t, g, "C").Properties["description"])
	})

	t.Run("unchanged types do nothing", func(t *testing.T) {
		g := chain(t)

		changed, err := SetInheritanceType(g, "A", map[string]vo.InheritanceType{"description": vo.InheritUnlessAlreadyOverRidden})

		require.NoError(t, err)
		assert.Empty(t, changed)
		assert.Equal(t, 0, g.Diff().Len())
	})
}

func TestRegenerate(t *testing.T) {
	// Arrange
	nodes := fixtures.Index(
		fixtures.NewNodeBuilder().WithID("P").
			WithProperty("description", "p", vo.TypeString).
			WithProperty("skill", "s", vo.TypeString).
			MustBuild(),
		fixtures.NewNodeBuilder().WithID("N").WithProperty("description", "n", vo.TypeString).MustBuild(),
		fixtures.NewNodeBuilder().WithID("M").WithInheritedProperty("description", "n", "N", vo.InheritUnlessAlreadyOverRidden).MustBuild(),
	)
	fixtures.Hierarchy(nodes, [2]string{"P", "N"}, [2]string{"N", "M"})
	g := NewGraph(nodes["P"], nodes["N"], nodes["M"])

	// Act
	affected, err := Regenerate(g, "N")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"skill"}, affected)
	n := mustNode(t, g, "N")
	assert.Equal(t, "n", n.Properties["description"])
	assert.Equal(t, "s", n.Properties["skill"])
	assert.Equal(t, "P", n.Inheritance["skill"].RefID())
	assert.Equal(t, vo.TypeString, n.PropertyType["skill"])
	m := mustNode(t, g, "M")
	assert.Equal(t, "s", m.Properties["skill"])
	assert.Equal(t, "P", m.Inheritance["skill"].RefID())
}

func TestRegenerate_NewFirstParentReachesSpecializations(t *testing.T) {
	// Arrange
	nodes := fixtures.Index(
		fixtures.NewNodeBuilder().WithID("P2").
			WithProperty("description", "v2", vo.TypeString).
			WithRule("description", "", vo.AlwaysInherit).
			MustBuild(),
		fixtures.NewNodeBuilder().WithID("N").WithInheritedProperty("description", "v1", "P1", vo.NeverInherit).MustBuild(),
		fixtures.NewNodeBuilder().WithID("C").WithInheritedProperty("description", "v1", "P1", vo.InheritUnlessAlreadyOverRidden).MustBuild(),
	)
	fixtures.Hierarchy(nodes, [2]string{"P2", "N"}, [2]string{"N", "C"})
	g := NewGraph(nodes["P2"], nodes["N"], nodes["C"])

	// Act
	affected, err := Regenerate(g, "N")

	// Assert
	require.NoError(t, err)
	assert.Contains(t, affected, "description")
	n := mustNode(t, g, "N")
	assert.Equal(t, "v2", n.Properties["description"])
	assert.Equal(t, vo.AlwaysInherit, n.Inheritance["description"].InheritanceType)
	assert.Equal(t, "P2", n.Inheritance["description"].RefID())
	c := mustNode(t, g, "C")
	assert.Equal(t, "v2", c.Properties["description"])
	assert.Equal(t, "P2", c.Inheritance["description"].RefID())
}

func TestRegenerate_RequiresGeneralization(t *testing.T) {
	g := NewGraph(fixtures.NewNodeBuilder().WithID("N").MustBuild())

	_, err := Regenerate(g, "N")

	assert.Error(t, err)
}

func TestResolveSource(t *testing.T) {
	g := chain(t)

	src, err := ResolveSource(g, "C", "description")
	require.NoError(t, err)
	assert.Equal(t, "A", src)

	assert.True(t, IsInheritedThrough(g, "C", "description", "A"))
	assert.False(t, IsInheritedThrough(g, "C", "description", "B"))

	cyclic := NewGraph(
		fixtures.NewNodeBuilder().WithID("X").WithRule("description", "Y", vo.AlwaysInherit).MustBuild(),
		fixtures.NewNodeBuilder().WithID("Y").WithRule("description", "X", vo.AlwaysInherit).MustBuild(),
	)
	_, err = ResolveSource(cyclic, "X", "description")
	assert.Error(t, err)
}
