package inheritance

import (
	"errors"
	"maps"
	"slices"

	"ontology-backend/domain/core/entities"
)

// ErrNoGeneralization is returned when inheritance is rebuilt for a node
// without a generalization.
var ErrNoGeneralization = errors.New("node must have at least one generalization")

// grouped collects property names per owner while remembering which
// generalization currently holds the value.
type grouped struct {
	order     []string
	props     map[string][]string
	valueFrom map[string]string
}

func newGrouped() *grouped {
	return &grouped{props: map[string][]string{}, valueFrom: map[string]string{}}
}

func (gr *grouped) add(owner, holder, property string) {
	if _, ok := gr.props[owner]; !ok {
		gr.order = append(gr.order, owner)
		gr.valueFrom[owner] = holder
	}
	gr.props[owner] = append(gr.props[owner], property)
}

// additionsFrom lists the properties of the given generalizations that spec
// lacks, grouped by the node that owns each value.
func additionsFrom(g *Graph, spec *entities.Node, genIDs []string) (map[string][]Addition, []string, error) {
	out := map[string][]Addition{}
	var order []string
	seen := map[string]bool{}
	for _, genID := range genIDs {
		gen, err := g.Node(genID)
		if err != nil {
			return nil, nil, err
		}
		for _, p := range slices.Sorted(maps.Keys(gen.Properties)) {
			if spec.HasProperty(p) || seen[p] {
				continue
			}
			seen[p] = true
			owner := gen.Inheritance.Source(p, gen.ID)
			if _, ok := out[owner]; !ok {
				order = append(order, owner)
			}
			out[owner] = append(out[owner], Addition{
				Name:  p,
				Type:  gen.PropertyType[p],
				Value: gen.Properties[p],
			})
		}
	}
	return out, order, nil
}

// LinkGeneralizations updates specID after addedIDs were linked as new
// generalizations. Properties it lacks are added from the new parents.
// Inherited properties whose owner is no longer reachable through any
// generalization are re-sourced from the first generalization that has them,
// or deleted when none does.
func LinkGeneralizations(g *Graph, specID string, addedIDs []string) error {
	spec, err := g.Node(specID)
	if err != nil {
		return err
	}
	current := spec.Generalizations.IDs()

	additions, order, err := additionsFrom(g, spec, addedIDs)
	if err != nil {
		return err
	}

	var deleted []string
	updated := newGrouped()
	for _, p := range slices.Sorted(maps.Keys(spec.Inheritance)) {
		ref := spec.Inheritance[p].RefID()
		if ref == "" {
			continue
		}
		reachable := false
		var holders []string
		for _, genID := range current {
			gen, err := g.Node(genID)
			if err != nil {
				return err
			}
			if ref == genID || ref == gen.Inheritance.Rule(p).RefID() {
				reachable = true
				break
			}
			if gen.HasProperty(p) {
				holders = append(holders, genID)
			}
		}
		if reachable {
			continue
		}
		if len(holders) == 0 {
			deleted = append(deleted, p)
			continue
		}
		holder, _ := g.Node(holders[0])
		updated.add(holder.Inheritance.Source(p, holder.ID), holder.ID, p)
	}

	return applyRelink(g, spec, deleted, additions, order, updated)
}

// UnlinkGeneralization updates specID after unlinkedID was removed from its
// generalizations. Properties that came through the removed parent are taken
// from the next generalization when it has them, otherwise from the first
// remaining generalization that does, otherwise deleted.
func UnlinkGeneralization(g *Graph, specID, unlinkedID string) error {
	spec, err := g.Node(specID)
	if err != nil {
		return err
	}
	var remaining []string
	for _, id := range spec.Generalizations.IDs() {
		if id != unlinkedID {
			remaining = append(remaining, id)
		}
	}
	if len(remaining) == 0 {
		return nil
	}
	next, err := g.Node(remaining[0])
	if err != nil {
		return err
	}
	unlinked, err := g.Node(unlinkedID)
	if err != nil {
		return err
	}

	var deleted []string
	updated := newGrouped()
	for _, p := range slices.Sorted(maps.Keys(spec.Inheritance)) {
		ref := spec.Inheritance[p].RefID()
		if ref == "" {
			continue
		}
		if ref != unlinkedID && unlinked.Inheritance.Rule(p).RefID() != ref {
			continue
		}
		if next.HasProperty(p) {
			updated.add(next.Inheritance.Source(p, next.ID), next.ID, p)
			continue
		}
		found := false
		for _, genID := range remaining {
			gen, err := g.Node(genID)
			if err != nil {
				return err
			}
			if gen.HasProperty(p) {
				updated.add(gen.Inheritance.Source(p, gen.ID), gen.ID, p)
				found = true
				break
			}
		}
		if !found {
			deleted = append(deleted, p)
		}
	}

	additions, order, err := additionsFrom(g, spec, []string{next.ID})
	if err != nil {
		return err
	}
	return applyRelink(g, spec, deleted, additions, order, updated)
}

// LinkSpecializations updates the specializations added to or removed from
// genID. Added ones receive the properties they lack. Removed ones drop
// properties inherited through genID, or re-source them when another
// generalization still provides them.
func LinkSpecializations(g *Graph, genID string, added, removed []string) error {
	gen, err := g.Node(genID)
	if err != nil {
		return err
	}

	for _, id := range added {
		spec, err := g.Node(id)
		if err != nil {
			return err
		}
		additions, order, err := additionsFrom(g, spec, []string{genID})
		if err != nil {
			return err
		}
		if err := applyRelink(g, spec, nil, additions, order, newGrouped()); err != nil {
			return err
		}
	}

	for _, id := range removed {
		spec, err := g.Node(id)
		if err != nil {
			return err
		}
		var others []string
		for _, other := range spec.Generalizations.IDs() {
			if other != genID {
				others = append(others, other)
			}
		}
		if len(others) > 0 {
			if err := UnlinkGeneralization(g, id, genID); err != nil {
				return err
			}
			continue
		}
		var deleted []string
		for _, p := range slices.Sorted(maps.Keys(gen.Properties)) {
			ref := spec.Inheritance.Rule(p).RefID()
			if ref != "" && (ref == genID || ref == gen.Inheritance.Rule(p).RefID()) {
				deleted = append(deleted, p)
			}
		}
		if err := applyRelink(g, spec, deleted, nil, nil, newGrouped()); err != nil {
			return err
		}
	}
	return nil
}

// applyRelink runs the deletions, additions and re-sourcing computed for a
// relinked specialization on it and everything below it.
func applyRelink(g *Graph, spec *entities.Node, deleted []string, additions map[string][]Addition, order []string, updated *grouped) error {
	rules := spec.Inheritance.Clone()

	if len(deleted) > 0 {
		if err := newWalker(g).visit(spec.ID, Change{Deleted: deleted}, rules, "", "", 0); err != nil {
			return err
		}
	}
	for _, owner := range order {
		if err := newWalker(g).visit(spec.ID, Change{Added: additions[owner]}, rules, owner, "", 0); err != nil {
			return err
		}
	}
	for _, owner := range updated.order {
		holder, err := g.Node(updated.valueFrom[owner])
		if err != nil {
			return err
		}
		change := Change{Updated: updated.props[owner]}
		if err := newWalker(g).visit(spec.ID, change, holder.Inheritance.Clone(), owner, holder.ID, 0); err != nil {
			return err
		}
	}
	return nil
}
