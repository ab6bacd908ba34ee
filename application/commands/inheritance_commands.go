package commands

import (
	pkgerrors "ontology-backend/pkg/errors"
)

// RuleUpdate sets the inheritance type of one property.
type RuleUpdate struct {
	InheritanceType string `json:"inheritanceType" validate:"required,inheritancetype"`
}

// UpdateInheritanceCommand changes the inheritance types of several
// properties of a node.
type UpdateInheritanceCommand struct {
	Audit
	NodeID     string                `json:"-" validate:"required"`
	Properties map[string]RuleUpdate `json:"properties" validate:"required,min=1,dive"`
}

// Validate validates the command
func (c UpdateInheritanceCommand) Validate() error {
	if len(c.Properties) == 0 {
		return pkgerrors.Validation("At least one property must be specified")
	}
	return validate(c)
}

// UpdatePropertyInheritanceCommand changes the inheritance type of one
// property.
type UpdatePropertyInheritanceCommand struct {
	Audit
	NodeID          string `json:"-" validate:"required"`
	PropertyName    string `json:"-" validate:"required"`
	InheritanceType string `json:"inheritanceType" validate:"required,inheritancetype"`
}

// Validate validates the command
func (c UpdatePropertyInheritanceCommand) Validate() error {
	return validate(c)
}

// RegenerateInheritanceCommand rebuilds a node's inheritance from its first
// generalization.
type RegenerateInheritanceCommand struct {
	Audit
	NodeID string `json:"-" validate:"required"`
}

// Validate validates the command
func (c RegenerateInheritanceCommand) Validate() error {
	return validate(c)
}
