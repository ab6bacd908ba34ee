package commands

import (
	vo "ontology-backend/domain/core/valueobjects"
	pkgerrors "ontology-backend/pkg/errors"
)

// AddLinksCommand links nodes into one relation of NodeID.
type AddLinksCommand struct {
	Audit
	NodeID         string    `json:"-" validate:"required"`
	Relation       string    `json:"-" validate:"required,relation"`
	Nodes          []vo.Link `json:"nodes" validate:"required,min=1"`
	CollectionName string    `json:"collectionName" validate:"omitempty,max=50,collectionname"`
}

// Validate validates the command
func (c AddLinksCommand) Validate() error {
	if err := validate(c, c.Nodes); err != nil {
		return err
	}
	for _, l := range c.Nodes {
		if l.ID == c.NodeID {
			return pkgerrors.CircularReference("A node cannot be linked to itself")
		}
	}
	return nil
}

// RemoveLinksCommand unlinks nodes from one relation of NodeID.
type RemoveLinksCommand struct {
	Audit
	NodeID   string    `json:"-" validate:"required"`
	Relation string    `json:"-" validate:"required,relation"`
	Nodes    []vo.Link `json:"nodes" validate:"required,min=1"`
}

// Validate validates the command
func (c RemoveLinksCommand) Validate() error {
	return validate(c, c.Nodes)
}

// MoveLinksCommand moves links between collections of one relation.
type MoveLinksCommand struct {
	Audit
	NodeID           string    `json:"-" validate:"required"`
	Relation         string    `json:"-" validate:"required,relation"`
	Nodes            []vo.Link `json:"nodes" validate:"required,min=1"`
	SourceCollection string    `json:"sourceCollection" validate:"required,max=50"`
	TargetCollection string    `json:"targetCollection" validate:"required,max=50"`
}

// Validate validates the command
func (c MoveLinksCommand) Validate() error {
	return validate(c, c.Nodes)
}

// ReorderLinksCommand moves links to new positions inside a collection.
type ReorderLinksCommand struct {
	Audit
	NodeID         string    `json:"-" validate:"required"`
	Relation       string    `json:"-" validate:"required,relation"`
	Nodes          []vo.Link `json:"nodes" validate:"required,min=1"`
	NewIndices     []int     `json:"newIndices" validate:"required,dive,gte=0"`
	CollectionName string    `json:"collectionName" validate:"omitempty,max=50"`
}

// Validate validates the command
func (c ReorderLinksCommand) Validate() error {
	if err := validate(c, c.Nodes); err != nil {
		return err
	}
	if len(c.NewIndices) != len(c.Nodes) {
		return pkgerrors.Validation("newIndices must be an array with the same length as nodes")
	}
	return nil
}

// TransferSpecializationsCommand moves specializations of NodeID under
// TargetNodeID.
type TransferSpecializationsCommand struct {
	Audit
	NodeID           string    `json:"-" validate:"required"`
	TargetNodeID     string    `json:"targetNodeId" validate:"required"`
	Nodes            []vo.Link `json:"nodes" validate:"required,min=1"`
	TargetCollection string    `json:"targetCollection" validate:"omitempty,max=50,collectionname"`
}

// Validate validates the command
func (c TransferSpecializationsCommand) Validate() error {
	if err := validate(c, c.Nodes); err != nil {
		return err
	}
	if c.NodeID == c.TargetNodeID {
		return pkgerrors.Validation("Source and target nodes must be different")
	}
	for _, l := range c.Nodes {
		if l.ID == c.NodeID || l.ID == c.TargetNodeID {
			return pkgerrors.CircularReference("A node cannot be transferred under itself")
		}
	}
	return nil
}
