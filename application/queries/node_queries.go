// Package queries defines the read side of the ontology API.
package queries

import (
	"ontology-backend/domain/core/entities"
	vo "ontology-backend/domain/core/valueobjects"
	"ontology-backend/domain/services/inheritance"
	pkgerrors "ontology-backend/pkg/errors"
)

func requireNodeID(id string) error {
	if id == "" {
		return pkgerrors.Validation("nodeId is required")
	}
	return nil
}

// GetNodeQuery fetches one node.
type GetNodeQuery struct {
	NodeID string
}

// Validate validates the GetNodeQuery
func (q GetNodeQuery) Validate() error {
	return requireNodeID(q.NodeID)
}

// ListNodesQuery represents a query to list nodes
type ListNodesQuery struct {
	NodeType string
	Root     string
	Deleted  bool
	Limit    int
	Offset   int
}

// Validate validates the ListNodesQuery
func (q ListNodesQuery) Validate() error {
	if q.NodeType != "" {
		if _, err := vo.ParseNodeType(q.NodeType); err != nil {
			return pkgerrors.Validation("invalid nodeType '%s'", q.NodeType)
		}
	}
	if q.Limit < 0 || q.Limit > 100 {
		return pkgerrors.Validation("limit must be between 1 and 100")
	}
	if q.Offset < 0 {
		return pkgerrors.Validation("offset cannot be negative")
	}
	return nil
}

// PageMetadata describes one page of a listing.
type PageMetadata struct {
	Total   int  `json:"total"`
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"hasMore"`
}

// ListNodesResult represents the result of listing nodes
type ListNodesResult struct {
	Nodes    []*entities.Node `json:"nodes"`
	Metadata PageMetadata     `json:"metadata"`
}

// GetRelationQuery returns the links of one relation of a node.
type GetRelationQuery struct {
	NodeID   string
	Relation string
}

// Validate validates the GetRelationQuery
func (q GetRelationQuery) Validate() error {
	if err := requireNodeID(q.NodeID); err != nil {
		return err
	}
	_, err := entities.ParseRelation(q.Relation)
	return err
}

// RelationResult holds the collections of a relation.
type RelationResult struct {
	NodeID      string         `json:"nodeId"`
	Relation    string         `json:"relation"`
	Collections vo.Collections `json:"collections"`
}

// GetCollectionsQuery lists the collection names of a relation.
type GetCollectionsQuery struct {
	NodeID   string
	Relation string
}

// Validate validates the GetCollectionsQuery
func (q GetCollectionsQuery) Validate() error {
	return GetRelationQuery(q).Validate()
}

// CollectionSummary is one named collection and its size.
type CollectionSummary struct {
	Name  string `json:"collectionName"`
	Count int    `json:"count"`
}

// CollectionsResult lists the collections of a relation in order.
type CollectionsResult struct {
	NodeID      string              `json:"nodeId"`
	Relation    string              `json:"relation"`
	Collections []CollectionSummary `json:"collections"`
}

// ExportOntologyQuery builds the specialization tree of the live ontology.
// An empty AppName exports every node.
type ExportOntologyQuery struct {
	AppName string
}

// Validate validates the ExportOntologyQuery
func (q ExportOntologyQuery) Validate() error {
	if len(q.AppName) > 100 {
		return pkgerrors.Validation("appName must not exceed 100 characters")
	}
	return nil
}

// OntologyExport is the exported tree and the number of nodes it was built from.
type OntologyExport struct {
	Tree      []*inheritance.TreeNode `json:"tree"`
	NodeCount int                     `json:"nodeCount"`
}
