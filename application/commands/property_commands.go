package commands

import (
	vo "ontology-backend/domain/core/valueobjects"
	pkgerrors "ontology-backend/pkg/errors"
)

// AddPropertyCommand adds a property and hands it down to specializations.
type AddPropertyCommand struct {
	Audit
	NodeID          string `json:"-" validate:"required"`
	PropertyName    string `json:"propertyName" validate:"required,notblank,max=100"`
	Value           any    `json:"value"`
	PropertyType    string `json:"propertyType"`
	InheritanceType string `json:"inheritanceType" validate:"omitempty,inheritancetype"`
}

// Validate validates the command
func (c AddPropertyCommand) Validate() error {
	if err := validate(c); err != nil {
		return err
	}
	if c.Value == nil {
		return pkgerrors.Validation("Property value is required")
	}
	if vo.IsReservedProperty(c.PropertyName) {
		return pkgerrors.ReservedProperty(c.PropertyName)
	}
	if c.PropertyType != "" && !vo.IsValidPropertyType(c.PropertyType) {
		return pkgerrors.Validation("Invalid property type: '%s'", c.PropertyType)
	}
	return nil
}

// PropertyUpdate is one entry of a batch property update.
type PropertyUpdate struct {
	PropertyName    string `json:"propertyName" validate:"required,notblank"`
	Value           any    `json:"value"`
	InheritanceType string `json:"inheritanceType" validate:"omitempty,inheritancetype"`
}

// UpdatePropertiesCommand changes several property values at once.
type UpdatePropertiesCommand struct {
	Audit
	NodeID  string           `json:"-" validate:"required"`
	Updates []PropertyUpdate `json:"updates" validate:"required,min=1,max=100,dive"`
}

// Validate validates the command
func (c UpdatePropertiesCommand) Validate() error {
	if err := validate(c); err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, u := range c.Updates {
		if u.Value == nil {
			return pkgerrors.Validation("Value is required for property '%s'", u.PropertyName)
		}
		if vo.IsReservedProperty(u.PropertyName) {
			return pkgerrors.ReservedProperty(u.PropertyName)
		}
		if seen[u.PropertyName] {
			return pkgerrors.Validation("Duplicate property names found in update request")
		}
		seen[u.PropertyName] = true
	}
	return nil
}

// DeletePropertyCommand removes a property from a node and its
// specializations.
type DeletePropertyCommand struct {
	Audit
	NodeID       string `json:"-" validate:"required"`
	PropertyName string `json:"-" validate:"required"`
}

// Validate validates the command
func (c DeletePropertyCommand) Validate() error {
	if err := validate(c); err != nil {
		return err
	}
	if vo.IsCoreProperty(c.PropertyName) {
		return pkgerrors.CoreProperty(c.PropertyName)
	}
	if vo.IsReservedProperty(c.PropertyName) {
		return pkgerrors.ReservedProperty(c.PropertyName)
	}
	return nil
}

// RenamePropertyCommand renames a property on a node and its
// specializations.
type RenamePropertyCommand struct {
	Audit
	NodeID       string `json:"-" validate:"required"`
	PropertyName string `json:"-" validate:"required"`
	NewName      string `json:"newName" validate:"required,notblank,max=100"`
}

// Validate validates the command
func (c RenamePropertyCommand) Validate() error {
	if err := validate(c); err != nil {
		return err
	}
	for _, name := range []string{c.PropertyName, c.NewName} {
		if vo.IsCoreProperty(name) || vo.IsReservedProperty(name) {
			return pkgerrors.ReservedProperty(name)
		}
	}
	if c.PropertyName == c.NewName {
		return pkgerrors.Validation("New property name must differ from the current one")
	}
	return nil
}
