package commands

import (
	"ontology-backend/domain/core/validators"
	vo "ontology-backend/domain/core/valueobjects"
	pkgerrors "ontology-backend/pkg/errors"
)

// CreateNodeCommand creates a node below at least one generalization.
type CreateNodeCommand struct {
	Audit
	NodeID          string            `json:"-" validate:"required"`
	Title           string            `json:"title" validate:"required,notblank,max=500"`
	NodeType        string            `json:"nodeType" validate:"required,nodetype"`
	Properties      map[string]any    `json:"properties"`
	PropertyType    map[string]string `json:"propertyType"`
	TextValue       map[string]string `json:"textValue"`
	Generalizations vo.Collections    `json:"generalizations"`
	Specializations vo.Collections    `json:"specializations"`
	Root            string            `json:"root"`
	AppName         string            `json:"appName"`
}

// Validate validates the command
func (c CreateNodeCommand) Validate() error {
	if err := validate(c); err != nil {
		return err
	}
	if c.Generalizations.Count() == 0 {
		return pkgerrors.Validation("At least one generalization is required")
	}
	if err := validateCollections("generalizations", c.Generalizations); err != nil {
		return err
	}
	if err := validateCollections("specializations", c.Specializations); err != nil {
		return err
	}
	for _, rel := range []string{vo.PropertyParts, vo.PropertyIsPartOf} {
		if v, ok := c.Properties[rel]; ok && v != nil {
			cs, ok := vo.AsCollections(vo.NormalizeTypedValue(rel, v))
			if !ok {
				return pkgerrors.Validation("Invalid %s structure", rel)
			}
			if err := validateCollections(rel, cs); err != nil {
				return err
			}
		}
	}
	return validators.CheckCircularReferences(c.Generalizations.IDs(), c.Specializations.IDs())
}

// CloneNodeCommand creates a specialization of ParentID that copies its shape.
type CloneNodeCommand struct {
	Audit
	ParentID string `json:"-" validate:"required"`
	NodeID   string `json:"-" validate:"required"`
}

// Validate validates the command
func (c CloneNodeCommand) Validate() error {
	return validate(c)
}

// UpdateNodeCommand replaces selected fields of a node. Nil fields are left
// untouched.
type UpdateNodeCommand struct {
	Audit
	NodeID          string         `json:"-" validate:"required"`
	Title           *string        `json:"title" validate:"omitempty,notblank,max=500"`
	Properties      map[string]any `json:"properties"`
	Generalizations vo.Collections `json:"generalizations"`
	Specializations vo.Collections `json:"specializations"`
}

// Validate validates the command
func (c UpdateNodeCommand) Validate() error {
	if err := validate(c); err != nil {
		return err
	}
	if c.Title == nil && c.Properties == nil && c.Generalizations == nil && c.Specializations == nil {
		return pkgerrors.Validation("Nothing to update")
	}
	if c.Generalizations != nil && c.Generalizations.Count() == 0 {
		return pkgerrors.LastGeneralization(c.NodeID)
	}
	for name := range c.Properties {
		if vo.IsReservedProperty(name) {
			return pkgerrors.ReservedProperty(name)
		}
	}
	if err := validateCollections("generalizations", c.Generalizations); err != nil {
		return err
	}
	if err := validateCollections("specializations", c.Specializations); err != nil {
		return err
	}
	if c.Generalizations != nil && c.Specializations != nil {
		return validators.CheckCircularReferences(c.Generalizations.IDs(), c.Specializations.IDs())
	}
	return nil
}

// DeleteNodeCommand soft deletes a node.
type DeleteNodeCommand struct {
	Audit
	NodeID string `json:"-" validate:"required"`
}

// Validate validates the command
func (c DeleteNodeCommand) Validate() error {
	return validate(c)
}
