package inheritance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	vo "ontology-backend/domain/core/valueobjects"
	"ontology-backend/tests/fixtures"
)

func TestGenerateInheritance(t *testing.T) {
	// Arrange
	parent := fixtures.NewNodeBuilder().
		WithID("P").
		WithProperty("description", "d", vo.TypeString).
		WithInheritedProperty("tags", []any{"t"}, "G", vo.AlwaysInherit).
		MustBuild()
	parent.Properties["notes"] = "no rule"

	// Act
	got := GenerateInheritance(parent)

	// Assert
	assert.Equal(t, "P", got["description"].RefID())
	assert.Equal(t, "G", got["tags"].RefID())
	assert.Equal(t, vo.AlwaysInherit, got["tags"].InheritanceType)
	assert.Equal(t, "P", got["notes"].RefID())
	assert.Equal(t, "P", got[vo.PropertyParts].RefID())
	assert.Nil(t, got[vo.PropertyIsPartOf].Ref)
	assert.Equal(t, vo.NeverInherit, got[vo.PropertyIsPartOf].InheritanceType)
	assert.Nil(t, parent.Inheritance["description"].Ref, "parent rules stay untouched")
}

func TestInheritProperties(t *testing.T) {
	parent := fixtures.NewNodeBuilder().
		WithID("P").
		WithProperty("text", "parent", vo.TypeString).
		WithProperty("actor", vo.NewCollections("x"), "actor").
		MustBuild()

	tests := []struct {
		name     string
		rule     vo.InheritanceType
		child    map[string]any
		wantText any
		wantLink any
	}{
		{
			name:     "neverInherit",
			rule:     vo.NeverInherit,
			child:    map[string]any{"text": "child"},
			wantText: "child",
			wantLink: vo.NewCollections(),
		},
		{
			name:     "neverInherit without child value",
			rule:     vo.NeverInherit,
			child:    nil,
			wantText: nil,
			wantLink: vo.NewCollections(),
		},
		{
			name:     "alwaysInherit",
			rule:     vo.AlwaysInherit,
			child:    map[string]any{"text": "child", "actor": vo.NewCollections("y")},
			wantText: "parent",
			wantLink: vo.NewCollections("x"),
		},
		{
			name:     "inheritUnlessAlreadyOverRidden keeps child values",
			rule:     vo.InheritUnlessAlreadyOverRidden,
			child:    map[string]any{"text": "child", "actor": vo.NewCollections("y")},
			wantText: "child",
			wantLink: vo.NewCollections("y"),
		},
		{
			name:     "inheritUnlessAlreadyOverRidden fills missing values",
			rule:     vo.InheritUnlessAlreadyOverRidden,
			child:    map[string]any{},
			wantText: "parent",
			wantLink: vo.NewCollections("x"),
		},
		{
			name:     "inheritAfterReview",
			rule:     vo.InheritAfterReview,
			child:    map[string]any{"text": "child"},
			wantText: "child",
			wantLink: vo.NewCollections(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := vo.Inheritance{
				"text":  vo.NewInheritanceRule("P", tt.rule),
				"actor": vo.NewInheritanceRule("P", tt.rule),
			}

			got := InheritProperties(parent, tt.child, rules)

			assert.Equal(t, tt.wantText, got["text"])
			assert.Equal(t, tt.wantLink, got["actor"])
			assert.Contains(t, got, vo.PropertyParts)
			assert.Contains(t, got, vo.PropertyIsPartOf)
		})
	}
}

func TestInheritProperties_KeepsChildOnlyProperties(t *testing.T) {
	parent := fixtures.NewNodeBuilder().WithID("P").MustBuild()

	got := InheritProperties(parent, map[string]any{"extra": 1.0}, vo.Inheritance{})

	assert.Equal(t, 1.0, got["extra"])
}
