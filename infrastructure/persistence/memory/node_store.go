// Package memory provides in-process implementations of the persistence
// ports, used for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"ontology-backend/application/ports"
	"ontology-backend/domain/core/entities"
	pkgerrors "ontology-backend/pkg/errors"
)

// NodeStore keeps nodes in a map. It implements both NodeRepository and
// WriteBatch.
type NodeStore struct {
	mu    sync.RWMutex
	nodes map[string]*entities.Node
	// FailCommit, when set, is returned by the next Commit.
	FailCommit error
}

// NewNodeStore creates a store seeded with copies of nodes.
func NewNodeStore(nodes ...*entities.Node) *NodeStore {
	s := &NodeStore{nodes: make(map[string]*entities.Node, len(nodes))}
	for _, n := range nodes {
		s.nodes[n.ID] = n.Clone()
	}
	return s
}

// GetByID returns a copy of the node with id.
func (s *NodeStore) GetByID(ctx context.Context, id string) (*entities.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return nil, pkgerrors.NodeNotFound(id)
	}
	return n.Clone(), nil
}

// GetMany returns copies of the nodes that exist among ids.
func (s *NodeStore) GetMany(ctx context.Context, ids []string) (map[string]*entities.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*entities.Node, len(ids))
	for _, id := range ids {
		if n, ok := s.nodes[id]; ok {
			out[id] = n.Clone()
		}
	}
	return out, nil
}

// Save stores a copy of node.
func (s *NodeStore) Save(ctx context.Context, node *entities.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes[node.ID] = node.Clone()
	return nil
}

// List filters, orders by ID and pages the stored nodes.
func (s *NodeStore) List(ctx context.Context, filter ports.NodeFilter) ([]*entities.Node, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*entities.Node
	for _, n := range s.nodes {
		if n.Deleted != filter.Deleted {
			continue
		}
		if filter.NodeType != "" && string(n.NodeType) != filter.NodeType {
			continue
		}
		if filter.Root != "" && n.Root != filter.Root {
			continue
		}
		matched = append(matched, n)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	page := make([]*entities.Node, 0, end-start)
	for _, n := range matched[start:end] {
		page = append(page, n.Clone())
	}
	return page, total, nil
}

// Commit stores every snapshot under one lock.
func (s *NodeStore) Commit(ctx context.Context, nodes []*entities.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailCommit != nil {
		err := s.FailCommit
		s.FailCommit = nil
		return err
	}
	for _, n := range nodes {
		s.nodes[n.ID] = n.Clone()
	}
	return nil
}

// Len returns the number of stored nodes.
func (s *NodeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}
