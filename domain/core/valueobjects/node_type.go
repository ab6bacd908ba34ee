package valueobjects

import "fmt"

// NodeType classifies a node within the ontology.
type NodeType string

const (
	NodeTypeActivity            NodeType = "activity"
	NodeTypeActor               NodeType = "actor"
	NodeTypeEvaluationDimension NodeType = "evaluationDimension"
	NodeTypeRole                NodeType = "role"
	NodeTypeIncentive           NodeType = "incentive"
	NodeTypeReward              NodeType = "reward"
	NodeTypeGroup               NodeType = "group"
	NodeTypeContext             NodeType = "context"
	NodeTypeConcept             NodeType = "concept"
)

// NodeTypes lists every accepted node type.
var NodeTypes = []NodeType{
	NodeTypeActivity,
	NodeTypeActor,
	NodeTypeEvaluationDimension,
	NodeTypeRole,
	NodeTypeIncentive,
	NodeTypeReward,
	NodeTypeGroup,
	NodeTypeContext,
	NodeTypeConcept,
}

// ParseNodeType validates a raw node type.
func ParseNodeType(s string) (NodeType, error) {
	for _, t := range NodeTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("invalid node type %q", s)
}
