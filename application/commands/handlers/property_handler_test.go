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

// chainEnv stores A -> B -> C where B and C inherit description from A.
func chainEnv() *testEnv {
	nodes := fixtures.Index(
		fixtures.NewNodeBuilder().WithID("A").WithProperty("description", "a", vo.TypeString).MustBuild(),
		fixtures.NewNodeBuilder().WithID("B").
			WithInheritedProperty("description", "a", "A", vo.InheritUnlessAlreadyOverRidden).
			MustBuild(),
		fixtures.NewNodeBuilder().WithID("C").
			WithInheritedProperty("description", "a", "A", vo.InheritUnlessAlreadyOverRidden).
			MustBuild(),
	)
	fixtures.Hierarchy(nodes, [2]string{"A", "B"}, [2]string{"B", "C"})
	return newTestEnv(nodes["A"], nodes["B"], nodes["C"])
}

func TestPropertyHandler_AddProperty(t *testing.T) {
	// Arrange
	env := chainEnv()
	handler := NewPropertyHandler(env.mutator, zap.NewNop())

	// Act
	err := handler.AddProperty(context.Background(), commands.AddPropertyCommand{
		Audit:        testAudit(),
		NodeID:       "A",
		PropertyName: "skill",
		Value:        "welding",
	})

	// Assert
	require.NoError(t, err)
	a := env.node(t, "A")
	assert.Equal(t, "welding", a.Properties["skill"])
	assert.Equal(t, vo.TypeString, a.PropertyType["skill"])
	for _, id := range []string{"B", "C"} {
		n := env.node(t, id)
		assert.Equal(t, "welding", n.Properties["skill"], id)
		assert.Equal(t, "A", n.Inheritance["skill"].RefID(), id)
	}
	assert.Equal(t, []changelog.ChangeType{changelog.ChangeAddProperty}, env.changeTypes("A"))
	assert.Empty(t, env.changeTypes("B"))
	assert.Equal(t, []string{events.TypeNodeUpdated, events.TypePropertiesPropagated}, env.events.Types())
}

func TestPropertyHandler_AddPropertyRejectsExisting(t *testing.T) {
	env := chainEnv()
	handler := NewPropertyHandler(env.mutator, zap.NewNop())

	err := handler.AddProperty(context.Background(), commands.AddPropertyCommand{
		Audit:        testAudit(),
		NodeID:       "A",
		PropertyName: "description",
		Value:        "again",
	})

	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodePropertyExists))
}

func TestPropertyHandler_UpdatePropertiesOverridesInheritedValue(t *testing.T) {
	// Arrange
	env := chainEnv()
	handler := NewPropertyHandler(env.mutator, zap.NewNop())

	// Act
	err := handler.UpdateProperties(context.Background(), commands.UpdatePropertiesCommand{
		Audit:   testAudit(),
		NodeID:  "B",
		Updates: []commands.PropertyUpdate{{PropertyName: "description", Value: "b"}},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "a", env.node(t, "A").Properties["description"])
	b := env.node(t, "B")
	assert.Equal(t, "b", b.Properties["description"])
	assert.Empty(t, b.Inheritance["description"].RefID())
	c := env.node(t, "C")
	assert.Equal(t, "b", c.Properties["description"])
	assert.Equal(t, "B", c.Inheritance["description"].RefID())
}

func TestPropertyHandler_UpdatePropertiesRejectsLinkProperties(t *testing.T) {
	env := chainEnv()
	handler := NewPropertyHandler(env.mutator, zap.NewNop())

	err := handler.UpdateProperties(context.Background(), commands.UpdatePropertiesCommand{
		Audit:   testAudit(),
		NodeID:  "B",
		Updates: []commands.PropertyUpdate{{PropertyName: vo.PropertyParts, Value: []any{}}},
	})

	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestPropertyHandler_UpdatePropertiesUnknownProperty(t *testing.T) {
	env := chainEnv()
	handler := NewPropertyHandler(env.mutator, zap.NewNop())

	err := handler.UpdateProperties(context.Background(), commands.UpdatePropertiesCommand{
		Audit:   testAudit(),
		NodeID:  "B",
		Updates: []commands.PropertyUpdate{{PropertyName: "missing", Value: "x"}},
	})

	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodePropertyNotFound))
}

func TestPropertyHandler_DeleteProperty(t *testing.T) {
	env := chainEnv()
	handler := NewPropertyHandler(env.mutator, zap.NewNop())

	err := handler.DeleteProperty(context.Background(), commands.DeletePropertyCommand{
		Audit:        testAudit(),
		NodeID:       "A",
		PropertyName: "description",
	})

	require.NoError(t, err)
	for _, id := range []string{"A", "B", "C"} {
		assert.False(t, env.node(t, id).HasProperty("description"), id)
	}
	assert.Equal(t, []changelog.ChangeType{changelog.ChangeRemoveProperty}, env.changeTypes("A"))
}

func TestPropertyHandler_RenameProperty(t *testing.T) {
	env := chainEnv()
	handler := NewPropertyHandler(env.mutator, zap.NewNop())

	err := handler.RenameProperty(context.Background(), commands.RenamePropertyCommand{
		Audit:        testAudit(),
		NodeID:       "A",
		PropertyName: "description",
		NewName:      "summary",
	})

	require.NoError(t, err)
	for _, id := range []string{"A", "B", "C"} {
		n := env.node(t, id)
		assert.False(t, n.HasProperty("description"), id)
		assert.Equal(t, "a", n.Properties["summary"], id)
	}
	assert.Equal(t, "A", env.node(t, "C").Inheritance["summary"].RefID())
}

func TestPropertyHandler_SystemUserEditsAreNotLogged(t *testing.T) {
	env := chainEnv()
	handler := NewPropertyHandler(env.mutator, zap.NewNop())

	err := handler.AddProperty(context.Background(), commands.AddPropertyCommand{
		Audit:        commands.Audit{Uname: "ouhrac", Reasoning: "sync"},
		NodeID:       "A",
		PropertyName: "skill",
		Value:        "welding",
	})

	require.NoError(t, err)
	assert.Empty(t, env.changes.All())
	assert.Equal(t, "welding", env.node(t, "A").Properties["skill"])
}

func TestInheritanceHandler_UpdateInheritance(t *testing.T) {
	// Arrange
	nodes := fixtures.Index(
		fixtures.NewNodeBuilder().WithID("A").WithProperty("description", "new", vo.TypeString).MustBuild(),
		fixtures.NewNodeBuilder().WithID("B").
			WithInheritedProperty("description", "old", "A", vo.InheritUnlessAlreadyOverRidden).
			MustBuild(),
	)
	fixtures.Hierarchy(nodes, [2]string{"A", "B"})
	env := newTestEnv(nodes["A"], nodes["B"])
	handler := NewInheritanceHandler(env.mutator, zap.NewNop())

	// Act
	err := handler.UpdateInheritance(context.Background(), commands.UpdateInheritanceCommand{
		Audit:      testAudit(),
		NodeID:     "A",
		Properties: map[string]commands.RuleUpdate{"description": {InheritanceType: string(vo.AlwaysInherit)}},
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, vo.AlwaysInherit, env.node(t, "A").Inheritance["description"].InheritanceType)
	assert.Equal(t, "new", env.node(t, "B").Properties["description"])
	assert.Contains(t, env.events.Types(), events.TypeInheritanceChanged)
}

func TestInheritanceHandler_UpdatePropertyInheritanceUnknownProperty(t *testing.T) {
	env := newTestEnv(fixtures.NewNodeBuilder().WithID("A").MustBuild())
	handler := NewInheritanceHandler(env.mutator, zap.NewNop())

	err := handler.UpdatePropertyInheritance(context.Background(), commands.UpdatePropertyInheritanceCommand{
		Audit:           testAudit(),
		NodeID:          "A",
		PropertyName:    "missing",
		InheritanceType: string(vo.NeverInherit),
	})

	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodePropertyNotFound))
}

func TestInheritanceHandler_RegenerateInheritance(t *testing.T) {
	// Arrange
	nodes := fixtures.Index(
		fixtures.NewNodeBuilder().WithID("P").WithProperty("skill", "s", vo.TypeString).MustBuild(),
		fixtures.NewNodeBuilder().WithID("N").MustBuild(),
	)
	fixtures.Hierarchy(nodes, [2]string{"P", "N"})
	env := newTestEnv(nodes["P"], nodes["N"])
	handler := NewInheritanceHandler(env.mutator, zap.NewNop())

	// Act
	err := handler.RegenerateInheritance(context.Background(), commands.RegenerateInheritanceCommand{
		Audit:  testAudit(),
		NodeID: "N",
	})

	// Assert
	require.NoError(t, err)
	n := env.node(t, "N")
	assert.Equal(t, "s", n.Properties["skill"])
	assert.Equal(t, "P", n.Inheritance["skill"].RefID())
}

func TestInheritanceHandler_RegenerateWithoutGeneralization(t *testing.T) {
	env := newTestEnv(fixtures.NewNodeBuilder().WithID("N").MustBuild())
	handler := NewInheritanceHandler(env.mutator, zap.NewNop())

	err := handler.RegenerateInheritance(context.Background(), commands.RegenerateInheritanceCommand{
		Audit:  testAudit(),
		NodeID: "N",
	})

	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
