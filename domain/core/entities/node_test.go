package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontology-backend/domain/core/valueobjects"
	"ontology-backend/domain/events"
	pkgerrors "ontology-backend/pkg/errors"
)

func TestNewNode(t *testing.T) {
	n, err := NewNode("  Teacher ", valueobjects.NodeTypeActor, "alice")

	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, "Teacher", n.Title)
	assert.Equal(t, valueobjects.NewCollections(), n.Specializations)
	assert.Equal(t, valueobjects.NewCollections(), n.Properties[valueobjects.PropertyParts])
	assert.Equal(t, valueobjects.NewCollections(), n.Properties[valueobjects.PropertyIsPartOf])

	_, err = NewNode("", valueobjects.NodeTypeActor, "alice")
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewNode("x", valueobjects.NodeType("planet"), "alice")
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestNode_EnsureDefaultsNormalizesStoredShapes(t *testing.T) {
	// Arrange
	n := &Node{
		ID: "n1",
		Properties: map[string]any{
			"parts":   []any{map[string]any{"collectionName": "main", "nodes": []any{map[string]any{"id": "p1"}}}},
			"actor":   []any{},
			"summary": "text",
		},
		PropertyType: map[string]string{"actor": "actor", "summary": "string"},
	}

	// Act
	n.EnsureDefaults()

	// Assert
	assert.Equal(t, []string{"p1"}, n.Relation(RelationParts).IDs())
	assert.Equal(t, valueobjects.NewCollections(), n.Properties["actor"])
	assert.Equal(t, "text", n.Properties["summary"])
	assert.Equal(t, valueobjects.NewCollections(), n.Properties[valueobjects.PropertyIsPartOf])
	assert.NotNil(t, n.ContributorsByProperty)
}

func TestNode_CloneIsDeep(t *testing.T) {
	n, err := NewNode("Root", valueobjects.NodeTypeActivity, "alice")
	require.NoError(t, err)
	n.SetProperty("tags", []any{"a"}, valueobjects.TypeStringArray, valueobjects.NewInheritanceRule("gen", valueobjects.AlwaysInherit))
	n.Specializations.Add(valueobjects.Link{ID: "s1"}, "")
	n.AddEvent(events.NewNodeUpdated(n.ID, nil, "alice", time.Now()))

	c := n.Clone()
	c.Properties["tags"].([]any)[0] = "b"
	c.Specializations.Add(valueobjects.Link{ID: "s2"}, "")
	*c.Inheritance["tags"].Ref = "other"

	assert.Equal(t, "a", n.Properties["tags"].([]any)[0])
	assert.Equal(t, []string{"s1"}, n.Specializations.IDs())
	assert.Equal(t, "gen", n.Inheritance["tags"].RefID())
	assert.Empty(t, c.GetUncommittedEvents())
	assert.Len(t, n.GetUncommittedEvents(), 1)
}

func TestNode_RenameProperty(t *testing.T) {
	n, err := NewNode("Root", valueobjects.NodeTypeActivity, "alice")
	require.NoError(t, err)
	n.SetProperty("old", "v", valueobjects.TypeString, valueobjects.NewInheritanceRule("", valueobjects.NeverInherit))
	n.TextValue["old"] = "note"

	n.RenameProperty("old", "new")

	assert.False(t, n.HasProperty("old"))
	assert.Equal(t, "v", n.Properties["new"])
	assert.Equal(t, valueobjects.TypeString, n.PropertyType["new"])
	assert.Equal(t, valueobjects.NeverInherit, n.Inheritance["new"].InheritanceType)
	assert.Equal(t, "note", n.TextValue["new"])
}

func TestNode_AddContributor(t *testing.T) {
	n, err := NewNode("Root", valueobjects.NodeTypeActivity, "alice")
	require.NoError(t, err)

	n.AddContributor("bob", "description")
	n.AddContributor("bob", "description")
	n.AddContributor("", "description")

	assert.Equal(t, []string{"bob"}, n.Contributors)
	assert.Equal(t, []string{"bob"}, n.ContributorsByProperty["description"])
}

func TestNode_EnsureEditableAndDelete(t *testing.T) {
	n, err := NewNode("Root", valueobjects.NodeTypeActivity, "alice")
	require.NoError(t, err)

	n.Locked = true
	assert.True(t, pkgerrors.HasCode(n.EnsureEditable(), pkgerrors.CodeNodeLocked))

	n.Locked = false
	require.NoError(t, n.MarkDeleted("alice"))
	assert.True(t, pkgerrors.HasCode(n.MarkDeleted("alice"), pkgerrors.CodeNodeDeleted))
	assert.True(t, pkgerrors.HasCode(n.EnsureEditable(), pkgerrors.CodeNodeDeleted))
	require.Len(t, n.GetUncommittedEvents(), 1)
	assert.Equal(t, events.TypeNodeDeleted, n.GetUncommittedEvents()[0].GetEventType())
}

func TestRelation_Inverse(t *testing.T) {
	assert.Equal(t, RelationGeneralizations, RelationSpecializations.Inverse())
	assert.Equal(t, RelationIsPartOf, RelationParts.Inverse())
	assert.Equal(t, RelationParts, RelationIsPartOf.Inverse())

	_, err := ParseRelation("siblings")
	assert.Error(t, err)
}

func TestAPIKey(t *testing.T) {
	now := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	key := NewAPIKey("hash", "u1", "alice", "", []string{"/api/nodes*"}, now)

	assert.Equal(t, "API Key generated on 3/5/2024", key.Description)
	assert.Equal(t, "client_1709632800000", key.ClientID)
	assert.True(t, key.IsActive)
	assert.True(t, key.Allows("/api/nodes/abc"))
	assert.False(t, key.Allows("/api/keys"))

	key.Deactivate()
	assert.False(t, key.IsActive)
}
