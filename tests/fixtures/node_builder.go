package fixtures

import (
	"time"

	"ontology-backend/domain/core/entities"
	vo "ontology-backend/domain/core/valueobjects"
)

// NodeBuilder builds test nodes.
type NodeBuilder struct {
	node *entities.Node
}

// NewNodeBuilder starts a builder with sensible defaults.
func NewNodeBuilder() *NodeBuilder {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := &entities.Node{
		ID:        vo.NewNodeID().String(),
		Title:     "Test Node",
		NodeType:  vo.NodeTypeActivity,
		CreatedBy: "tester",
		CreatedAt: now,
		UpdatedAt: now,
	}
	n.EnsureDefaults()
	return &NodeBuilder{node: n}
}

// WithID sets the node ID
func (b *NodeBuilder) WithID(id string) *NodeBuilder {
	b.node.ID = id
	return b
}

// WithTitle sets the title
func (b *NodeBuilder) WithTitle(title string) *NodeBuilder {
	b.node.Title = title
	return b
}

// WithNodeType sets the node type
func (b *NodeBuilder) WithNodeType(t vo.NodeType) *NodeBuilder {
	b.node.NodeType = t
	return b
}

// WithProperty adds an owned property.
func (b *NodeBuilder) WithProperty(name string, value any, propertyType string) *NodeBuilder {
	b.node.SetProperty(name, value, propertyType, vo.NewInheritanceRule("", vo.DefaultInheritanceType))
	return b
}

// WithInheritedProperty adds a property inherited from ref.
func (b *NodeBuilder) WithInheritedProperty(name string, value any, ref string, t vo.InheritanceType) *NodeBuilder {
	b.node.SetProperty(name, value, vo.InferType(value), vo.NewInheritanceRule(ref, t))
	return b
}

// WithRule sets only the inheritance rule of a property.
func (b *NodeBuilder) WithRule(name, ref string, t vo.InheritanceType) *NodeBuilder {
	b.node.Inheritance[name] = vo.NewInheritanceRule(ref, t)
	return b
}

// WithGeneralizations sets the main generalization collection.
func (b *NodeBuilder) WithGeneralizations(ids ...string) *NodeBuilder {
	b.node.Generalizations = vo.NewCollections(ids...)
	return b
}

// WithSpecializations sets the main specialization collection.
func (b *NodeBuilder) WithSpecializations(ids ...string) *NodeBuilder {
	b.node.Specializations = vo.NewCollections(ids...)
	return b
}

// WithParts sets the parts relation.
func (b *NodeBuilder) WithParts(ids ...string) *NodeBuilder {
	b.node.SetRelation(entities.RelationParts, vo.NewCollections(ids...))
	return b
}

// WithIsPartOf sets the isPartOf relation.
func (b *NodeBuilder) WithIsPartOf(ids ...string) *NodeBuilder {
	b.node.SetRelation(entities.RelationIsPartOf, vo.NewCollections(ids...))
	return b
}

// Deleted marks the node deleted.
func (b *NodeBuilder) Deleted() *NodeBuilder {
	b.node.Deleted = true
	return b
}

// AsCategory marks the node as a top-level category.
func (b *NodeBuilder) AsCategory() *NodeBuilder {
	b.node.Category = true
	return b
}

// Locked marks the node locked.
func (b *NodeBuilder) Locked() *NodeBuilder {
	b.node.Locked = true
	return b
}

// MustBuild returns the node.
func (b *NodeBuilder) MustBuild() *entities.Node {
	return b.node
}

// Hierarchy wires generalization and specialization links in both
// directions. Each pair is {parent, child}.
func Hierarchy(nodes map[string]*entities.Node, pairs ...[2]string) {
	for _, p := range pairs {
		parent, child := nodes[p[0]], nodes[p[1]]
		parent.Specializations.Add(vo.Link{ID: child.ID}, "")
		child.Generalizations.Add(vo.Link{ID: parent.ID}, "")
	}
}

// Index keys nodes by ID.
func Index(nodes ...*entities.Node) map[string]*entities.Node {
	out := make(map[string]*entities.Node, len(nodes))
	for _, n := range nodes {
		out[n.ID] = n
	}
	return out
}
