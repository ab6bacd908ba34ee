package queries

import (
	vo "ontology-backend/domain/core/valueobjects"
	pkgerrors "ontology-backend/pkg/errors"
)

// GetPropertiesQuery lists every property of a node.
type GetPropertiesQuery struct {
	NodeID string
}

// Validate validates the GetPropertiesQuery
func (q GetPropertiesQuery) Validate() error {
	return requireNodeID(q.NodeID)
}

// GetPropertyQuery fetches one property of a node.
type GetPropertyQuery struct {
	NodeID       string
	PropertyName string
}

// Validate validates the GetPropertyQuery
func (q GetPropertyQuery) Validate() error {
	if err := requireNodeID(q.NodeID); err != nil {
		return err
	}
	if q.PropertyName == "" {
		return pkgerrors.Validation("propertyName is required")
	}
	return nil
}

// PropertyView is a property as the API reports it. Type defaults to string
// and the rule to an owned inheritUnlessAlreadyOverRidden.
type PropertyView struct {
	Name        string             `json:"name"`
	Value       any                `json:"value"`
	Type        string             `json:"type"`
	Inheritance vo.InheritanceRule `json:"inheritance"`
}

// PropertiesResult lists the properties of a node sorted by name.
type PropertiesResult struct {
	NodeID     string         `json:"nodeId"`
	Properties []PropertyView `json:"properties"`
}

// GetInheritanceQuery returns every inheritance rule of a node.
type GetInheritanceQuery struct {
	NodeID string
}

// Validate validates the GetInheritanceQuery
func (q GetInheritanceQuery) Validate() error {
	return requireNodeID(q.NodeID)
}

// InheritanceResult holds the rules of a node.
type InheritanceResult struct {
	NodeID      string         `json:"nodeId"`
	Inheritance vo.Inheritance `json:"inheritance"`
}

// GetPropertyInheritanceQuery returns the rule of one property.
type GetPropertyInheritanceQuery struct {
	NodeID       string
	PropertyName string
}

// Validate validates the GetPropertyInheritanceQuery
func (q GetPropertyInheritanceQuery) Validate() error {
	return GetPropertyQuery(q).Validate()
}

// PropertyInheritanceResult is the rule of one property.
type PropertyInheritanceResult struct {
	NodeID       string             `json:"nodeId"`
	PropertyName string             `json:"propertyName"`
	Inheritance  vo.InheritanceRule `json:"inheritance"`
}

// GetChangesQuery pages through the change log of a node.
type GetChangesQuery struct {
	NodeID string
	Limit  int
	Offset int
}

// Validate validates the GetChangesQuery
func (q GetChangesQuery) Validate() error {
	if err := requireNodeID(q.NodeID); err != nil {
		return err
	}
	if q.Offset < 0 {
		return pkgerrors.Validation("offset cannot be negative")
	}
	return nil
}
