package events

import "time"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
	Actor       string    `json:"actor,omitempty"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Event type names as published on the bus.
const (
	TypeNodeCreated          = "node.created"
	TypeNodeUpdated          = "node.updated"
	TypeNodeDeleted          = "node.deleted"
	TypeNodeLinksChanged     = "node.links_changed"
	TypeInheritanceChanged   = "node.inheritance_changed"
	TypePropertiesPropagated = "node.properties_propagated"
	TypeCollectionsChanged   = "node.collections_changed"
)

func newBase(nodeID, eventType, actor string, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: nodeID,
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     1,
		Actor:       actor,
	}
}

// NodeCreated is raised when a node is created or cloned
type NodeCreated struct {
	BaseEvent
	NodeID   string `json:"node_id"`
	Title    string `json:"title"`
	NodeType string `json:"node_type"`
	ParentID string `json:"parent_id,omitempty"`
}

// NewNodeCreated creates a NodeCreated event
func NewNodeCreated(nodeID, title, nodeType, parentID, actor string, timestamp time.Time) NodeCreated {
	return NodeCreated{
		BaseEvent: newBase(nodeID, TypeNodeCreated, actor, timestamp),
		NodeID:    nodeID,
		Title:     title,
		NodeType:  nodeType,
		ParentID:  parentID,
	}
}

// NodeUpdated is raised when fields or properties of a node change
type NodeUpdated struct {
	BaseEvent
	NodeID            string   `json:"node_id"`
	ChangedProperties []string `json:"changed_properties"`
}

// NewNodeUpdated creates a NodeUpdated event
func NewNodeUpdated(nodeID string, changed []string, actor string, timestamp time.Time) NodeUpdated {
	return NodeUpdated{
		BaseEvent:         newBase(nodeID, TypeNodeUpdated, actor, timestamp),
		NodeID:            nodeID,
		ChangedProperties: changed,
	}
}

// NodeDeleted is raised when a node is soft deleted
type NodeDeleted struct {
	BaseEvent
	NodeID string `json:"node_id"`
	Title  string `json:"title"`
}

// NewNodeDeleted creates a NodeDeleted event
func NewNodeDeleted(nodeID, title, actor string, timestamp time.Time) NodeDeleted {
	return NodeDeleted{
		BaseEvent: newBase(nodeID, TypeNodeDeleted, actor, timestamp),
		NodeID:    nodeID,
		Title:     title,
	}
}

// NodeLinksChanged is raised when one of the relations of a node changes
type NodeLinksChanged struct {
	BaseEvent
	NodeID   string   `json:"node_id"`
	Relation string   `json:"relation"`
	Added    []string `json:"added,omitempty"`
	Removed  []string `json:"removed,omitempty"`
}

// NewNodeLinksChanged creates a NodeLinksChanged event
func NewNodeLinksChanged(nodeID, relation string, added, removed []string, actor string, timestamp time.Time) NodeLinksChanged {
	return NodeLinksChanged{
		BaseEvent: newBase(nodeID, TypeNodeLinksChanged, actor, timestamp),
		NodeID:    nodeID,
		Relation:  relation,
		Added:     added,
		Removed:   removed,
	}
}

// InheritanceChanged is raised when inheritance rules of a node change
type InheritanceChanged struct {
	BaseEvent
	NodeID     string            `json:"node_id"`
	Properties map[string]string `json:"properties"`
}

// NewInheritanceChanged creates an InheritanceChanged event
func NewInheritanceChanged(nodeID string, properties map[string]string, actor string, timestamp time.Time) InheritanceChanged {
	return InheritanceChanged{
		BaseEvent:  newBase(nodeID, TypeInheritanceChanged, actor, timestamp),
		NodeID:     nodeID,
		Properties: properties,
	}
}

// PropertiesPropagated summarizes the descendants rewritten by one operation.
// A single event is raised per operation rather than one per written node.
type PropertiesPropagated struct {
	BaseEvent
	OriginID    string   `json:"origin_id"`
	AffectedIDs []string `json:"affected_ids"`
}

// NewPropertiesPropagated creates a PropertiesPropagated event
func NewPropertiesPropagated(originID string, affected []string, actor string, timestamp time.Time) PropertiesPropagated {
	return PropertiesPropagated{
		BaseEvent:   newBase(originID, TypePropertiesPropagated, actor, timestamp),
		OriginID:    originID,
		AffectedIDs: affected,
	}
}

// CollectionsChanged is raised when collections of a relation are created,
// renamed, deleted or sorted
type CollectionsChanged struct {
	BaseEvent
	NodeID      string   `json:"node_id"`
	Relation    string   `json:"relation"`
	Collections []string `json:"collections"`
}

// NewCollectionsChanged creates a CollectionsChanged event
func NewCollectionsChanged(nodeID, relation string, collections []string, actor string, timestamp time.Time) CollectionsChanged {
	return CollectionsChanged{
		BaseEvent:   newBase(nodeID, TypeCollectionsChanged, actor, timestamp),
		NodeID:      nodeID,
		Relation:    relation,
		Collections: collections,
	}
}
