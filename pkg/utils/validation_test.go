package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "ontology-backend/pkg/errors"
)

type sample struct {
	Reasoning  string   `validate:"required,max=10"`
	NodeType   string   `validate:"omitempty,nodetype"`
	Collection string   `validate:"omitempty,collectionname"`
	Rule       string   `validate:"omitempty,inheritancetype"`
	Relation   string   `validate:"omitempty,relation"`
	Nodes      []string `validate:"max=2"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		in      sample
		message string
	}{
		{name: "valid", in: sample{Reasoning: "ok", NodeType: "actor", Collection: "tools_1", Rule: "alwaysInherit", Relation: "parts"}},
		{name: "missing reasoning", in: sample{}, message: "reasoning is required"},
		{name: "long reasoning", in: sample{Reasoning: "0123456789x"}, message: "reasoning must be at most 10 characters"},
		{name: "bad node type", in: sample{Reasoning: "ok", NodeType: "planet"}, message: "nodeType is not a valid node type"},
		{name: "bad collection", in: sample{Reasoning: "ok", Collection: "a b"}, message: "collection can only contain letters, numbers, hyphens, and underscores"},
		{name: "bad rule", in: sample{Reasoning: "ok", Rule: "sometimes"}, message: "rule is not a valid inheritance type"},
		{name: "bad relation", in: sample{Reasoning: "ok", Relation: "siblings"}, message: "relation must be one of: specializations generalizations parts isPartOf"},
		{name: "too many nodes", in: sample{Reasoning: "ok", Nodes: []string{"a", "b", "c"}}, message: "nodes must contain at most 2 entries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.in)
			if tt.message == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
			assert.Equal(t, tt.message, pkgerrors.GetAppError(err).Message)
		})
	}
}
