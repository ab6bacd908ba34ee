// Package changelog models the per-node audit trail written alongside every
// ontology mutation.
package changelog

import (
	"time"

	"github.com/google/uuid"

	"ontology-backend/domain/core/entities"
)

// ChangeType classifies a change-log entry.
type ChangeType string

const (
	ChangeText             ChangeType = "change text"
	ChangeSortElements     ChangeType = "sort elements"
	ChangeRemoveElement    ChangeType = "remove element"
	ChangeAddElement       ChangeType = "add element"
	ChangeAddElements      ChangeType = "add elements"
	ChangeRemoveElements   ChangeType = "remove elements"
	ChangeModifyElements   ChangeType = "modify elements"
	ChangeAddProperty      ChangeType = "add property"
	ChangeRemoveProperty   ChangeType = "remove property"
	ChangeEditProperty     ChangeType = "edit property"
	ChangeDeleteNode       ChangeType = "delete node"
	ChangeAddNode          ChangeType = "add node"
	ChangeAddCollection    ChangeType = "add collection"
	ChangeDeleteCollection ChangeType = "delete collection"
	ChangeEditCollection   ChangeType = "edit collection"
	ChangeSortCollections  ChangeType = "sort collections"
	ChangeAddImages        ChangeType = "add images"
	ChangeRemoveImages     ChangeType = "remove images"
	// ChangeError marks a side record describing a failed propagation.
	ChangeError ChangeType = "error"
)

// NodeChange is one entry of a node's change log.
type NodeChange struct {
	ID               string         `json:"id" dynamodbav:"id"`
	NodeID           string         `json:"nodeId" dynamodbav:"nodeId"`
	ModifiedBy       string         `json:"modifiedBy" dynamodbav:"modifiedBy"`
	ModifiedProperty string         `json:"modifiedProperty,omitempty" dynamodbav:"modifiedProperty,omitempty"`
	PreviousValue    any            `json:"previousValue" dynamodbav:"previousValue"`
	NewValue         any            `json:"newValue" dynamodbav:"newValue"`
	ModifiedAt       time.Time      `json:"modifiedAt" dynamodbav:"modifiedAt"`
	ChangeType       ChangeType     `json:"changeType" dynamodbav:"changeType"`
	FullNode         *entities.Node `json:"fullNode,omitempty" dynamodbav:"fullNode,omitempty"`
	ChangeDetails    map[string]any `json:"changeDetails,omitempty" dynamodbav:"changeDetails,omitempty"`
	Reasoning        string         `json:"reasoning,omitempty" dynamodbav:"reasoning,omitempty"`
}

// Entry describes a change before it is stamped with an ID and time.
type Entry struct {
	NodeID           string
	ModifiedBy       string
	ModifiedProperty string
	PreviousValue    any
	NewValue         any
	ChangeType       ChangeType
	FullNode         *entities.Node
	ChangeDetails    map[string]any
	Reasoning        string
}

// New stamps an entry. The full node snapshot is copied so later edits do
// not leak into the log.
func New(e Entry, at time.Time) NodeChange {
	var snapshot *entities.Node
	if e.FullNode != nil {
		snapshot = e.FullNode.Clone()
	}
	return NodeChange{
		ID:               uuid.New().String(),
		NodeID:           e.NodeID,
		ModifiedBy:       e.ModifiedBy,
		ModifiedProperty: e.ModifiedProperty,
		PreviousValue:    e.PreviousValue,
		NewValue:         e.NewValue,
		ModifiedAt:       at.UTC(),
		ChangeType:       e.ChangeType,
		FullNode:         snapshot,
		ChangeDetails:    e.ChangeDetails,
		Reasoning:        e.Reasoning,
	}
}

// ShouldRecord reports whether changes made by modifiedBy are logged.
// Anonymous and system edits are not.
func ShouldRecord(modifiedBy, systemUser string) bool {
	return modifiedBy != "" && modifiedBy != systemUser
}
