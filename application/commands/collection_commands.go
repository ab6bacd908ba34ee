package commands

import (
	vo "ontology-backend/domain/core/valueobjects"
	pkgerrors "ontology-backend/pkg/errors"
)

// CreateCollectionsCommand adds empty named collections to a relation.
type CreateCollectionsCommand struct {
	Audit
	NodeID   string   `json:"-" validate:"required"`
	Relation string   `json:"-" validate:"required,relation"`
	Names    []string `json:"collectionNames" validate:"required,min=1,max=100,dive,required,max=50,collectionname"`
}

// Validate validates the command
func (c CreateCollectionsCommand) Validate() error {
	if err := validate(c); err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, name := range c.Names {
		if name == vo.MainCollection {
			return pkgerrors.Validation(`Cannot create a collection named "main" as it is reserved.`)
		}
		if seen[name] {
			return pkgerrors.Validation("Duplicate collection name: %s", name)
		}
		seen[name] = true
	}
	return nil
}

// DeleteCollectionCommand removes a collection, moving its links to main.
type DeleteCollectionCommand struct {
	Audit
	NodeID         string `json:"-" validate:"required"`
	Relation       string `json:"-" validate:"required,relation"`
	CollectionName string `json:"collectionName" validate:"required"`
}

// Validate validates the command
func (c DeleteCollectionCommand) Validate() error {
	if err := validate(c); err != nil {
		return err
	}
	if c.CollectionName == vo.MainCollection {
		return pkgerrors.Validation(`Cannot delete the "main" collection as it is required.`)
	}
	return nil
}

// RenameCollectionCommand renames a collection of a relation.
type RenameCollectionCommand struct {
	Audit
	NodeID         string `json:"-" validate:"required"`
	Relation       string `json:"-" validate:"required,relation"`
	CollectionName string `json:"collectionName" validate:"required"`
	NewName        string `json:"newName" validate:"required,max=50,collectionname"`
}

// Validate validates the command
func (c RenameCollectionCommand) Validate() error {
	if err := validate(c); err != nil {
		return err
	}
	if c.CollectionName == vo.MainCollection || c.NewName == vo.MainCollection {
		return pkgerrors.Validation(`The "main" collection cannot be renamed.`)
	}
	return nil
}

// SortCollectionsCommand reorders the collections of a relation.
type SortCollectionsCommand struct {
	Audit
	NodeID   string   `json:"-" validate:"required"`
	Relation string   `json:"-" validate:"required,relation"`
	Order    []string `json:"order" validate:"required,min=1,max=100"`
}

// Validate validates the command
func (c SortCollectionsCommand) Validate() error {
	return validate(c)
}
