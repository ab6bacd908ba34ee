package services

import (
	"context"

	"ontology-backend/application/ports"
	"ontology-backend/domain/core/entities"
	vo "ontology-backend/domain/core/valueobjects"
)

// loader fetches the neighbourhood of an operation and remembers which IDs
// do not exist.
type loader struct {
	nodes   ports.NodeRepository
	cache   map[string]*entities.Node
	missing map[string]bool
}

func newLoader(nodes ports.NodeRepository) *loader {
	return &loader{
		nodes:   nodes,
		cache:   map[string]*entities.Node{},
		missing: map[string]bool{},
	}
}

// preload loads seeds, then walks generalizations upward, specializations
// and parts downward, and finally pulls the direct links and inheritance
// sources of everything loaded.
func (l *loader) preload(ctx context.Context, seeds []string) error {
	if _, err := l.fetch(ctx, seeds); err != nil {
		return err
	}
	if err := l.walk(ctx, seeds, func(n *entities.Node) []string {
		return n.Generalizations.IDs()
	}); err != nil {
		return err
	}
	if err := l.walk(ctx, seeds, func(n *entities.Node) []string {
		return n.Specializations.IDs()
	}); err != nil {
		return err
	}
	if err := l.walk(ctx, seeds, func(n *entities.Node) []string {
		return n.Relation(entities.RelationParts).IDs()
	}); err != nil {
		return err
	}

	var direct []string
	for _, id := range seeds {
		n, ok := l.cache[id]
		if !ok {
			continue
		}
		direct = append(direct, n.Relation(entities.RelationIsPartOf).IDs()...)
		for _, cs := range n.PropertyOf {
			direct = append(direct, cs.IDs()...)
		}
		for _, v := range n.Properties {
			if cs, ok := linkIDs(v); ok {
				direct = append(direct, cs...)
			}
		}
	}
	if _, err := l.fetch(ctx, direct); err != nil {
		return err
	}

	var refs []string
	for _, n := range l.cache {
		for _, rule := range n.Inheritance {
			if ref := rule.RefID(); ref != "" {
				refs = append(refs, ref)
			}
		}
	}
	_, err := l.fetch(ctx, refs)
	return err
}

// walk follows next breadth first from start, fetching each frontier in
// one round trip.
func (l *loader) walk(ctx context.Context, start []string, next func(*entities.Node) []string) error {
	visited := map[string]bool{}
	frontier := start
	for len(frontier) > 0 {
		var ids []string
		for _, id := range frontier {
			if visited[id] {
				continue
			}
			visited[id] = true
			n, ok := l.cache[id]
			if !ok {
				continue
			}
			ids = append(ids, next(n)...)
		}
		fresh, err := l.fetch(ctx, ids)
		if err != nil {
			return err
		}
		frontier = frontier[:0:0]
		for _, id := range ids {
			if !visited[id] && (fresh[id] || l.cache[id] != nil) {
				frontier = append(frontier, id)
			}
		}
	}
	return nil
}

// fetch loads the IDs not seen before and reports which ones were new.
func (l *loader) fetch(ctx context.Context, ids []string) (map[string]bool, error) {
	var want []string
	seen := map[string]bool{}
	for _, id := range ids {
		if id == "" || seen[id] || l.missing[id] {
			continue
		}
		seen[id] = true
		if _, ok := l.cache[id]; !ok {
			want = append(want, id)
		}
	}
	fresh := map[string]bool{}
	if len(want) == 0 {
		return fresh, nil
	}
	found, err := l.nodes.GetMany(ctx, want)
	if err != nil {
		return nil, err
	}
	for _, id := range want {
		n, ok := found[id]
		if !ok {
			l.missing[id] = true
			continue
		}
		n.EnsureDefaults()
		l.cache[id] = n
		fresh[id] = true
	}
	return fresh, nil
}

func linkIDs(value any) ([]string, bool) {
	cs, ok := value.(vo.Collections)
	if !ok {
		return nil, false
	}
	return cs.IDs(), true
}
