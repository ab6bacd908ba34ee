// Package handlers answers read-only ontology queries.
package handlers

import (
	"context"
	"maps"
	"slices"

	"go.uber.org/zap"

	"ontology-backend/application/ports"
	"ontology-backend/application/queries"
	"ontology-backend/domain/config"
	"ontology-backend/domain/core/entities"
	vo "ontology-backend/domain/core/valueobjects"
	"ontology-backend/domain/services/inheritance"
	pkgerrors "ontology-backend/pkg/errors"
)

// NodeQueryHandler handles node, relation, property and inheritance queries
type NodeQueryHandler struct {
	nodes  ports.NodeRepository
	cfg    *config.DomainConfig
	logger *zap.Logger
}

// NewNodeQueryHandler creates a new node query handler
func NewNodeQueryHandler(nodes ports.NodeRepository, cfg *config.DomainConfig, logger *zap.Logger) *NodeQueryHandler {
	return &NodeQueryHandler{nodes: nodes, cfg: cfg, logger: logger}
}

func (h *NodeQueryHandler) load(ctx context.Context, id string) (*entities.Node, error) {
	n, err := h.nodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	n.EnsureDefaults()
	return n, nil
}

// GetNode returns the stored node.
func (h *NodeQueryHandler) GetNode(ctx context.Context, q queries.GetNodeQuery) (*entities.Node, error) {
	return h.load(ctx, q.NodeID)
}

// ListNodes returns one page of nodes ordered by ID.
func (h *NodeQueryHandler) ListNodes(ctx context.Context, q queries.ListNodesQuery) (*queries.ListNodesResult, error) {
	if q.Limit <= 0 {
		q.Limit = h.cfg.DefaultListLimit
	}
	if q.Limit > h.cfg.MaxListLimit {
		q.Limit = h.cfg.MaxListLimit
	}

	nodes, total, err := h.nodes.List(ctx, ports.NodeFilter{
		NodeType: q.NodeType,
		Root:     q.Root,
		Deleted:  q.Deleted,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []*entities.Node{}
	}

	h.logger.Debug("Nodes listed",
		zap.String("nodeType", q.NodeType),
		zap.Int("count", len(nodes)),
		zap.Int("total", total),
	)

	return &queries.ListNodesResult{
		Nodes: nodes,
		Metadata: queries.PageMetadata{
			Total:   total,
			Offset:  q.Offset,
			Limit:   q.Limit,
			HasMore: q.Offset+len(nodes) < total,
		},
	}, nil
}

// GetRelation returns the collections of one relation.
func (h *NodeQueryHandler) GetRelation(ctx context.Context, q queries.GetRelationQuery) (*queries.RelationResult, error) {
	n, err := h.load(ctx, q.NodeID)
	if err != nil {
		return nil, err
	}
	return &queries.RelationResult{
		NodeID:      n.ID,
		Relation:    q.Relation,
		Collections: n.Relation(entities.Relation(q.Relation)),
	}, nil
}

// GetCollections lists the collection names of a relation with their sizes.
func (h *NodeQueryHandler) GetCollections(ctx context.Context, q queries.GetCollectionsQuery) (*queries.CollectionsResult, error) {
	n, err := h.load(ctx, q.NodeID)
	if err != nil {
		return nil, err
	}
	cs := n.Relation(entities.Relation(q.Relation))
	out := make([]queries.CollectionSummary, 0, len(cs))
	for _, c := range cs {
		out = append(out, queries.CollectionSummary{Name: c.CollectionName, Count: len(c.Nodes)})
	}
	return &queries.CollectionsResult{NodeID: n.ID, Relation: q.Relation, Collections: out}, nil
}

func propertyView(n *entities.Node, name string) queries.PropertyView {
	t := n.PropertyType[name]
	if t == "" {
		t = vo.TypeString
	}
	return queries.PropertyView{
		Name:        name,
		Value:       n.Properties[name],
		Type:        t,
		Inheritance: n.Inheritance.Rule(name),
	}
}

// GetProperties lists every property of a node sorted by name.
func (h *NodeQueryHandler) GetProperties(ctx context.Context, q queries.GetPropertiesQuery) (*queries.PropertiesResult, error) {
	n, err := h.load(ctx, q.NodeID)
	if err != nil {
		return nil, err
	}
	names := slices.Sorted(maps.Keys(n.Properties))
	out := make([]queries.PropertyView, 0, len(names))
	for _, name := range names {
		out = append(out, propertyView(n, name))
	}
	return &queries.PropertiesResult{NodeID: n.ID, Properties: out}, nil
}

// GetProperty returns one property.
func (h *NodeQueryHandler) GetProperty(ctx context.Context, q queries.GetPropertyQuery) (*queries.PropertyView, error) {
	n, err := h.load(ctx, q.NodeID)
	if err != nil {
		return nil, err
	}
	if !n.HasProperty(q.PropertyName) {
		return nil, pkgerrors.PropertyNotFound(n.ID, q.PropertyName)
	}
	view := propertyView(n, q.PropertyName)
	return &view, nil
}

// GetInheritance returns the rules of every property of a node. Properties
// without a stored rule report the default.
func (h *NodeQueryHandler) GetInheritance(ctx context.Context, q queries.GetInheritanceQuery) (*queries.InheritanceResult, error) {
	n, err := h.load(ctx, q.NodeID)
	if err != nil {
		return nil, err
	}
	rules := n.Inheritance.Clone()
	for name := range n.Properties {
		if _, ok := rules[name]; !ok {
			rules[name] = n.Inheritance.Rule(name)
		}
	}
	return &queries.InheritanceResult{NodeID: n.ID, Inheritance: rules}, nil
}

// GetPropertyInheritance returns the rule of one property.
func (h *NodeQueryHandler) GetPropertyInheritance(ctx context.Context, q queries.GetPropertyInheritanceQuery) (*queries.PropertyInheritanceResult, error) {
	n, err := h.load(ctx, q.NodeID)
	if err != nil {
		return nil, err
	}
	if !n.HasProperty(q.PropertyName) {
		return nil, pkgerrors.PropertyNotFound(n.ID, q.PropertyName)
	}
	return &queries.PropertyInheritanceResult{
		NodeID:       n.ID,
		PropertyName: q.PropertyName,
		Inheritance:  n.Inheritance.Rule(q.PropertyName),
	}, nil
}

// ExportOntology pages through every live node and builds the
// specialization tree from them.
func (h *NodeQueryHandler) ExportOntology(ctx context.Context, q queries.ExportOntologyQuery) (*queries.OntologyExport, error) {
	var nodes []*entities.Node
	for offset := 0; ; {
		page, total, err := h.nodes.List(ctx, ports.NodeFilter{Limit: h.cfg.MaxListLimit, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, n := range page {
			if n.Deleted || (q.AppName != "" && n.AppName != q.AppName) {
				continue
			}
			nodes = append(nodes, n)
		}
		offset += len(page)
		if len(page) == 0 || offset >= total {
			break
		}
	}

	tree := inheritance.ExportTree(inheritance.NewGraph(nodes...))

	h.logger.Info("Ontology exported",
		zap.String("appName", q.AppName),
		zap.Int("nodes", len(nodes)),
		zap.Int("roots", len(tree)),
	)

	return &queries.OntologyExport{Tree: tree, NodeCount: len(nodes)}, nil
}
