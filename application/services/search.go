package services

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"ontology-backend/application/ports"
	"ontology-backend/domain/core/entities"
	vo "ontology-backend/domain/core/valueobjects"
)

// NodeLookup resolves nodes for document building.
type NodeLookup interface {
	Node(id string) (*entities.Node, error)
}

// SearchIndexService keeps the external search index in step with nodes.
type SearchIndexService struct {
	nodes   ports.NodeRepository
	indexer ports.SearchIndexer
	logger  *zap.Logger
}

// NewSearchIndexService creates the service.
func NewSearchIndexService(nodes ports.NodeRepository, indexer ports.SearchIndexer, logger *zap.Logger) *SearchIndexService {
	return &SearchIndexService{nodes: nodes, indexer: indexer, logger: logger}
}

var (
	collectionSpaces = regexp.MustCompile(`\s+`)
	collectionBad    = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
	collectionEdges  = regexp.MustCompile(`^[-_.]+|[-_.]+$`)
)

// IndexCollection names the index collection a node belongs to.
func IndexCollection(n *entities.Node) string {
	if n.AppName == "" {
		return "ontology"
	}
	name := strings.TrimSpace(n.AppName)
	name = collectionSpaces.ReplaceAllString(name, "_")
	name = collectionBad.ReplaceAllString(name, "")
	name = collectionEdges.ReplaceAllString(name, "")
	if len(name) > 512 {
		name = name[:512]
	}
	if name == "" {
		name = "default_collection"
	}
	return "ontology-" + name
}

// BuildDocument renders the indexed text of n: its own description, then
// the titles of its specializations, generalizations and owned parts and
// wholes.
func BuildDocument(lookup NodeLookup, n *entities.Node) ports.SearchDocument {
	titles := func(cs vo.Collections) []string {
		var out []string
		for _, id := range cs.IDs() {
			if linked, err := lookup.Node(id); err == nil && linked.Title != "" {
				out = append(out, linked.Title)
			}
		}
		return out
	}
	owned := func(property string) []string {
		if n.IsInherited(property) {
			return nil
		}
		cs, ok := vo.AsCollections(n.Properties[property])
		if !ok {
			return nil
		}
		return titles(cs)
	}
	section := func(label string, items []string) string {
		if len(items) == 0 {
			return ""
		}
		return label + ":\n" + strings.Join(items, "\n")
	}

	var sections []string
	if desc, _ := n.Properties[vo.PropertyDescription].(string); !n.IsInherited(vo.PropertyDescription) && strings.TrimSpace(desc) != "" {
		sections = append(sections, "Description:\n"+strings.TrimSpace(desc))
	}
	for _, s := range []string{
		section("Specializations", titles(n.Specializations)),
		section("Generalizations", titles(n.Generalizations)),
		section("Parts", owned(vo.PropertyParts)),
		section("Is Part Of", owned(vo.PropertyIsPartOf)),
	} {
		if s != "" {
			sections = append(sections, s)
		}
	}

	return ports.SearchDocument{
		ID:         n.ID,
		Collection: IndexCollection(n),
		Title:      n.Title,
		NodeType:   string(n.NodeType),
		Content:    strings.Join(sections, "\n\n"),
	}
}

// IndexNodes upserts live nodes and removes deleted ones.
func (s *SearchIndexService) IndexNodes(ctx context.Context, lookup NodeLookup, nodes []*entities.Node) error {
	var docs []ports.SearchDocument
	removed := map[string][]string{}
	for _, n := range nodes {
		if n.Deleted {
			c := IndexCollection(n)
			removed[c] = append(removed[c], n.ID)
			continue
		}
		docs = append(docs, BuildDocument(lookup, n))
	}
	if len(docs) > 0 {
		if err := s.indexer.Upsert(ctx, docs); err != nil {
			return err
		}
	}
	for collection, ids := range removed {
		if err := s.indexer.Remove(ctx, collection, ids); err != nil {
			return err
		}
	}
	return nil
}

// Trigger reindexes a single node on demand.
func (s *SearchIndexService) Trigger(ctx context.Context, nodeID string, update, deleted bool) error {
	n, err := s.nodes.GetByID(ctx, nodeID)
	if err != nil {
		return err
	}
	switch {
	case update && !n.Deleted:
		var ids []string
		ids = append(ids, n.Specializations.IDs()...)
		ids = append(ids, n.Generalizations.IDs()...)
		ids = append(ids, n.Relation(entities.RelationParts).IDs()...)
		ids = append(ids, n.Relation(entities.RelationIsPartOf).IDs()...)
		linked, err := s.nodes.GetMany(ctx, ids)
		if err != nil {
			return err
		}
		linked[n.ID] = n
		return s.IndexNodes(ctx, mapLookup(linked), []*entities.Node{n})
	case deleted || n.Deleted:
		return s.indexer.Remove(ctx, IndexCollection(n), []string{n.ID})
	}
	s.logger.Debug("Search trigger ignored", zap.String("nodeId", nodeID))
	return nil
}

type mapLookup map[string]*entities.Node

func (m mapLookup) Node(id string) (*entities.Node, error) {
	if n, ok := m[id]; ok {
		return n, nil
	}
	return nil, &missingNode{id: id}
}

type missingNode struct{ id string }

func (e *missingNode) Error() string { return "node " + e.id + " not found" }
