package entities

import (
	"strings"
	"time"

	"ontology-backend/domain/core/valueobjects"
	"ontology-backend/domain/events"
	pkgerrors "ontology-backend/pkg/errors"
)

// Relation names a link-valued structure of a node.
type Relation string

const (
	RelationSpecializations Relation = "specializations"
	RelationGeneralizations Relation = "generalizations"
	RelationParts           Relation = "parts"
	RelationIsPartOf        Relation = "isPartOf"
)

// ParseRelation validates a raw relation name.
func ParseRelation(s string) (Relation, error) {
	switch r := Relation(s); r {
	case RelationSpecializations, RelationGeneralizations, RelationParts, RelationIsPartOf:
		return r, nil
	}
	return "", pkgerrors.Validation("invalid relation type '%s'", s)
}

// Inverse returns the relation that mirrors r on the linked node.
func (r Relation) Inverse() Relation {
	switch r {
	case RelationSpecializations:
		return RelationGeneralizations
	case RelationGeneralizations:
		return RelationSpecializations
	case RelationParts:
		return RelationIsPartOf
	default:
		return RelationParts
	}
}

// Node is a document of the ontology. Relations between nodes are stored on
// both ends; property values are materialized on every node that inherits them.
type Node struct {
	ID                      string                              `json:"id" dynamodbav:"id"`
	Title                   string                              `json:"title" dynamodbav:"title"`
	NodeType                valueobjects.NodeType               `json:"nodeType" dynamodbav:"nodeType"`
	Properties              map[string]any                      `json:"properties" dynamodbav:"properties"`
	PropertyType            map[string]string                   `json:"propertyType" dynamodbav:"propertyType"`
	Inheritance             valueobjects.Inheritance            `json:"inheritance" dynamodbav:"inheritance"`
	Specializations         valueobjects.Collections            `json:"specializations" dynamodbav:"specializations"`
	Generalizations         valueobjects.Collections            `json:"generalizations" dynamodbav:"generalizations"`
	TextValue               map[string]string                   `json:"textValue,omitempty" dynamodbav:"textValue,omitempty"`
	PropertyOf              map[string]valueobjects.Collections `json:"propertyOf,omitempty" dynamodbav:"propertyOf,omitempty"`
	Root                    string                              `json:"root,omitempty" dynamodbav:"root,omitempty"`
	Deleted                 bool                                `json:"deleted" dynamodbav:"deleted"`
	Locked                  bool                                `json:"locked,omitempty" dynamodbav:"locked,omitempty"`
	Unclassified            bool                                `json:"unclassified,omitempty" dynamodbav:"unclassified,omitempty"`
	Category                bool                                `json:"category,omitempty" dynamodbav:"category,omitempty"`
	AppName                 string                              `json:"appName,omitempty" dynamodbav:"appName,omitempty"`
	NumberOfGeneralizations int                                 `json:"numberOfGeneralizations" dynamodbav:"numberOfGeneralizations"`
	CreatedBy               string                              `json:"createdBy,omitempty" dynamodbav:"createdBy,omitempty"`
	Contributors            []string                            `json:"contributors" dynamodbav:"contributors"`
	ContributorsByProperty  map[string][]string                 `json:"contributorsByProperty" dynamodbav:"contributorsByProperty"`
	CreatedAt               time.Time                           `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt               time.Time                           `json:"updatedAt" dynamodbav:"updatedAt"`

	events []events.DomainEvent
}

// NewNode builds a fresh node with canonical empty structures.
func NewNode(title string, nodeType valueobjects.NodeType, createdBy string) (*Node, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, pkgerrors.Validation("title is required")
	}
	if _, err := valueobjects.ParseNodeType(string(nodeType)); err != nil {
		return nil, pkgerrors.Validation("%s", err.Error())
	}
	now := time.Now().UTC()
	n := &Node{
		ID:        valueobjects.NewNodeID().String(),
		Title:     title,
		NodeType:  nodeType,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	n.EnsureDefaults()
	return n, nil
}

// EnsureDefaults fills missing maps and collections and normalizes link
// values loaded from storage.
func (n *Node) EnsureDefaults() {
	if n.Properties == nil {
		n.Properties = map[string]any{}
	}
	if n.PropertyType == nil {
		n.PropertyType = map[string]string{}
	}
	if n.Inheritance == nil {
		n.Inheritance = valueobjects.Inheritance{}
	}
	if n.TextValue == nil {
		n.TextValue = map[string]string{}
	}
	if n.PropertyOf == nil {
		n.PropertyOf = map[string]valueobjects.Collections{}
	}
	if n.ContributorsByProperty == nil {
		n.ContributorsByProperty = map[string][]string{}
	}
	if n.Contributors == nil {
		n.Contributors = []string{}
	}
	n.Specializations = valueobjects.Normalize(n.Specializations)
	n.Generalizations = valueobjects.Normalize(n.Generalizations)
	for k, v := range n.PropertyOf {
		n.PropertyOf[k] = valueobjects.Normalize(v)
	}
	for name, value := range n.Properties {
		n.Properties[name] = valueobjects.NormalizeTypedValue(n.PropertyType[name], value)
	}
	for _, core := range []string{valueobjects.PropertyParts, valueobjects.PropertyIsPartOf} {
		if cs, ok := valueobjects.AsCollections(n.Properties[core]); ok {
			n.Properties[core] = cs
		} else {
			n.Properties[core] = valueobjects.NewCollections()
		}
	}
}

// Clone returns a deep copy without pending events.
func (n *Node) Clone() *Node {
	out := *n
	out.events = nil
	out.Properties = make(map[string]any, len(n.Properties))
	for k, v := range n.Properties {
		out.Properties[k] = valueobjects.DeepCopy(v)
	}
	out.PropertyType = cloneStringMap(n.PropertyType)
	out.TextValue = cloneStringMap(n.TextValue)
	out.Inheritance = n.Inheritance.Clone()
	out.Specializations = n.Specializations.Clone()
	out.Generalizations = n.Generalizations.Clone()
	out.PropertyOf = make(map[string]valueobjects.Collections, len(n.PropertyOf))
	for k, v := range n.PropertyOf {
		out.PropertyOf[k] = v.Clone()
	}
	out.Contributors = append([]string{}, n.Contributors...)
	out.ContributorsByProperty = make(map[string][]string, len(n.ContributorsByProperty))
	for k, v := range n.ContributorsByProperty {
		out.ContributorsByProperty[k] = append([]string{}, v...)
	}
	return &out
}

// Relation returns the collections stored under r.
func (n *Node) Relation(r Relation) valueobjects.Collections {
	switch r {
	case RelationSpecializations:
		return n.Specializations
	case RelationGeneralizations:
		return n.Generalizations
	default:
		cs, _ := valueobjects.AsCollections(n.Properties[string(r)])
		return valueobjects.Normalize(cs)
	}
}

// SetRelation replaces the collections stored under r.
func (n *Node) SetRelation(r Relation, cs valueobjects.Collections) {
	switch r {
	case RelationSpecializations:
		n.Specializations = cs
	case RelationGeneralizations:
		n.Generalizations = cs
	default:
		if n.Properties == nil {
			n.Properties = map[string]any{}
		}
		n.Properties[string(r)] = cs
	}
}

// FirstGeneralization returns the ID of the primary parent, or "".
func (n *Node) FirstGeneralization() string {
	return n.Generalizations.First()
}

// HasProperty reports whether the node carries property name.
func (n *Node) HasProperty(name string) bool {
	_, ok := n.Properties[name]
	return ok
}

// IsInherited reports whether property takes its value from another node.
func (n *Node) IsInherited(property string) bool {
	return n.Inheritance.Rule(property).IsInherited()
}

// SetProperty writes a property value together with its type and rule.
func (n *Node) SetProperty(name string, value any, propertyType string, rule valueobjects.InheritanceRule) {
	n.Properties[name] = valueobjects.NormalizeTypedValue(propertyType, value)
	if propertyType != "" {
		n.PropertyType[name] = propertyType
	}
	n.Inheritance[name] = rule
}

// RemoveProperty drops every trace of a property from the node.
func (n *Node) RemoveProperty(name string) {
	delete(n.Properties, name)
	delete(n.PropertyType, name)
	delete(n.Inheritance, name)
	delete(n.TextValue, name)
}

// RenameProperty moves a property and its metadata to a new name.
func (n *Node) RenameProperty(oldName, newName string) {
	if v, ok := n.Properties[oldName]; ok {
		n.Properties[newName] = v
		delete(n.Properties, oldName)
	}
	if v, ok := n.PropertyType[oldName]; ok {
		n.PropertyType[newName] = v
		delete(n.PropertyType, oldName)
	}
	if v, ok := n.Inheritance[oldName]; ok {
		n.Inheritance[newName] = v
		delete(n.Inheritance, oldName)
	}
	if v, ok := n.TextValue[oldName]; ok {
		n.TextValue[newName] = v
		delete(n.TextValue, oldName)
	}
	if v, ok := n.PropertyOf[oldName]; ok {
		n.PropertyOf[newName] = v
		delete(n.PropertyOf, oldName)
	}
}

// AddContributor records uname as a contributor of the node and, when
// property is set, of that property.
func (n *Node) AddContributor(uname, property string) {
	if uname == "" {
		return
	}
	if !containsString(n.Contributors, uname) {
		n.Contributors = append(n.Contributors, uname)
	}
	if property == "" {
		return
	}
	if n.ContributorsByProperty == nil {
		n.ContributorsByProperty = map[string][]string{}
	}
	if !containsString(n.ContributorsByProperty[property], uname) {
		n.ContributorsByProperty[property] = append(n.ContributorsByProperty[property], uname)
	}
}

// EnsureEditable rejects edits on deleted or locked nodes.
func (n *Node) EnsureEditable() error {
	if n.Deleted {
		return pkgerrors.NodeAlreadyDeleted(n.ID)
	}
	if n.Locked {
		return pkgerrors.NodeLocked(n.ID)
	}
	return nil
}

// MarkDeleted soft deletes the node.
func (n *Node) MarkDeleted(actor string) error {
	if n.Deleted {
		return pkgerrors.NodeAlreadyDeleted(n.ID)
	}
	n.Deleted = true
	n.Touch()
	n.AddEvent(events.NewNodeDeleted(n.ID, n.Title, actor, n.UpdatedAt))
	return nil
}

// Touch bumps the update timestamp.
func (n *Node) Touch() {
	n.UpdatedAt = time.Now().UTC()
}

// GetUncommittedEvents returns all uncommitted domain events
func (n *Node) GetUncommittedEvents() []events.DomainEvent {
	return n.events
}

// MarkEventsAsCommitted clears the uncommitted events
func (n *Node) MarkEventsAsCommitted() {
	n.events = nil
}

// AddEvent records a domain event on the aggregate
func (n *Node) AddEvent(event events.DomainEvent) {
	n.events = append(n.events, event)
}

func cloneStringMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
