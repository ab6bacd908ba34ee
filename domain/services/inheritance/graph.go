// Package inheritance keeps inherited property values consistent across the
// generalization DAG. Every function here works on an in-memory Graph and
// records the nodes it rewrites; callers persist Graph.Diff afterwards.
package inheritance

import (
	"errors"
	"fmt"

	"ontology-backend/domain/core/entities"
)

// DefaultMaxDepth bounds recursion through specializations.
const DefaultMaxDepth = 256

// ErrMaxDepth is returned when propagation recurses deeper than allowed,
// which only happens on corrupted (cyclic) data.
var ErrMaxDepth = errors.New("inheritance propagation exceeded maximum depth")

// NodeNotLoadedError reports that the engine needed a node the caller did
// not put in the graph.
type NodeNotLoadedError struct {
	ID string
}

func (e *NodeNotLoadedError) Error() string {
	return fmt.Sprintf("node %s is not loaded", e.ID)
}

// IsNodeNotLoaded extracts the missing node ID from err.
func IsNodeNotLoaded(err error) (string, bool) {
	var nl *NodeNotLoadedError
	if errors.As(err, &nl) {
		return nl.ID, true
	}
	return "", false
}

// Graph is the explicit set of nodes an operation may read and write.
type Graph struct {
	nodes    map[string]*entities.Node
	dirty    []string
	dirtySet map[string]bool
	maxDepth int
}

// NewGraph builds a graph over copies of nodes.
func NewGraph(nodes ...*entities.Node) *Graph {
	g := &Graph{
		nodes:    make(map[string]*entities.Node, len(nodes)),
		dirtySet: make(map[string]bool),
		maxDepth: DefaultMaxDepth,
	}
	for _, n := range nodes {
		g.Load(n)
	}
	return g
}

// WithMaxDepth overrides the recursion limit.
func (g *Graph) WithMaxDepth(depth int) *Graph {
	if depth > 0 {
		g.maxDepth = depth
	}
	return g
}

// Load adds a copy of n without marking it dirty. Already loaded nodes are
// kept as they are.
func (g *Graph) Load(n *entities.Node) {
	if n == nil {
		return
	}
	if _, ok := g.nodes[n.ID]; ok {
		return
	}
	c := n.Clone()
	c.EnsureDefaults()
	g.nodes[c.ID] = c
}

// Insert adds a new node and marks it dirty.
func (g *Graph) Insert(n *entities.Node) {
	n.EnsureDefaults()
	g.nodes[n.ID] = n
	g.Touch(n.ID)
}

// Has reports whether id is loaded.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the loaded node with id.
func (g *Graph) Node(id string) (*entities.Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, &NodeNotLoadedError{ID: id}
	}
	return n, nil
}

// Len returns the number of loaded nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Touch marks id as written.
func (g *Graph) Touch(id string) {
	if g.dirtySet[id] {
		return
	}
	if n, ok := g.nodes[id]; ok {
		n.Touch()
	}
	g.dirtySet[id] = true
	g.dirty = append(g.dirty, id)
}

// IsDirty reports whether id has been written.
func (g *Graph) IsDirty(id string) bool {
	return g.dirtySet[id]
}

// Diff is the ordered list of node snapshots to write.
type Diff struct {
	Writes []*entities.Node
}

// IDs returns the written node IDs in write order.
func (d Diff) IDs() []string {
	ids := make([]string, len(d.Writes))
	for i, n := range d.Writes {
		ids[i] = n.ID
	}
	return ids
}

// Len returns the number of writes.
func (d Diff) Len() int {
	return len(d.Writes)
}

// Diff returns the dirty nodes in first-touch order.
func (g *Graph) Diff() Diff {
	writes := make([]*entities.Node, 0, len(g.dirty))
	for _, id := range g.dirty {
		writes = append(writes, g.nodes[id])
	}
	return Diff{Writes: writes}
}

// specializations returns the direct specialization IDs of n, failing when
// one of them is not loaded.
func (g *Graph) specializations(n *entities.Node) ([]string, error) {
	ids := n.Specializations.IDs()
	for _, id := range ids {
		if !g.Has(id) {
			return nil, &NodeNotLoadedError{ID: id}
		}
	}
	return ids, nil
}
