package inheritance

import (
	"maps"
	"slices"

	"ontology-backend/domain/core/entities"
	vo "ontology-backend/domain/core/valueobjects"
)

// Propagate pushes a change made on origin to every specialization below it.
// Updated properties become owned by origin, so their refs are cleared there.
// Callers apply deletions, renames and new values on origin beforehand;
// Propagate repeats them idempotently.
func Propagate(g *Graph, originID string, change Change) error {
	origin, err := g.Node(originID)
	if err != nil {
		return err
	}

	for _, p := range change.Updated {
		rule := origin.Inheritance.Rule(p)
		origin.Inheritance[p] = rule.WithRef("")
	}
	for _, p := range change.Deleted {
		origin.RemoveProperty(p)
		delete(origin.PropertyOf, p)
	}
	for _, r := range change.Renamed {
		origin.RenameProperty(r.From, r.To)
	}
	g.Touch(originID)

	w := newWalker(g)
	w.start(originID, change.Updated)
	return w.children(origin, change, origin.Inheritance.Clone(), originID, originID, 0)
}

// walker carries the per-call visited sets. Structural changes reach a node
// once; an updated property reaches a node once per property, so a diamond
// path that filters a property out does not hide it from the other path.
type walker struct {
	g       *Graph
	visited map[string]bool
	reached map[string]map[string]bool
}

func newWalker(g *Graph) *walker {
	return &walker{g: g, visited: make(map[string]bool), reached: make(map[string]map[string]bool)}
}

// start marks the node a walk begins from as already rewritten.
func (w *walker) start(id string, updated []string) {
	w.visited[id] = true
	w.markReached(id, updated)
}

func (w *walker) markReached(id string, props []string) {
	if len(props) == 0 {
		return
	}
	seen, ok := w.reached[id]
	if !ok {
		seen = make(map[string]bool, len(props))
		w.reached[id] = seen
	}
	for _, p := range props {
		seen[p] = true
	}
}

// unreached drops the properties that already reached id on another path.
func (w *walker) unreached(id string, props []string) []string {
	seen := w.reached[id]
	out := make([]string, 0, len(props))
	for _, p := range props {
		if !seen[p] {
			out = append(out, p)
		}
	}
	return out
}

func (w *walker) children(n *entities.Node, change Change, rules vo.Inheritance, ref, valueFrom string, depth int) error {
	specs, err := w.g.specializations(n)
	if err != nil {
		return err
	}
	for _, id := range specs {
		if err := w.visit(id, change, rules, ref, valueFrom, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// visit applies change to one inheriting node. rules are the inheritance
// rules of the node the change arrives from; ref is the owner recorded on
// updated and added properties; valueFrom holds the current value of
// updated properties.
func (w *walker) visit(id string, change Change, rules vo.Inheritance, ref, valueFrom string, depth int) error {
	if depth > w.g.maxDepth {
		return ErrMaxDepth
	}
	n, err := w.g.Node(id)
	if err != nil {
		return err
	}

	updated := w.unreached(id, w.filterUpdated(n, change.Updated, rules))
	if w.visited[id] {
		if len(updated) == 0 {
			return nil
		}
		change = Change{}
	}
	w.visited[id] = true
	w.markReached(id, updated)

	before := n.Inheritance.Clone()
	changed := false

	if len(updated) > 0 {
		source, err := w.g.Node(valueFrom)
		if err != nil {
			return err
		}
		for _, p := range updated {
			rule := n.Inheritance.Rule(p).WithRef(ref)
			n.Inheritance[p] = rule
			if value, ok := source.Properties[p]; ok {
				n.Properties[p] = vo.DeepCopy(value)
			}
			if t, ok := source.PropertyType[p]; ok {
				n.PropertyType[p] = t
			}
		}
		changed = true
	}

	for _, p := range change.Deleted {
		if n.HasProperty(p) || hasRule(n, p) {
			n.RemoveProperty(p)
			changed = true
		}
	}

	// An added property never replaces a value the node owns itself.
	for _, a := range change.Added {
		if n.HasProperty(a.Name) && !n.Inheritance.Rule(a.Name).IsInherited() {
			continue
		}
		n.SetProperty(a.Name, vo.DeepCopy(a.Value), a.Type, vo.NewInheritanceRule(ref, vo.DefaultInheritanceType))
		changed = true
	}

	for _, r := range change.Renamed {
		if n.HasProperty(r.From) {
			n.RenameProperty(r.From, r.To)
			changed = true
		}
	}

	if changed {
		w.g.Touch(id)
	}

	next := change
	next.Updated = updated
	return w.children(n, next, before, ref, valueFrom, depth)
}

// filterUpdated keeps the updated properties that n should pick up given
// the rules of the node the change comes from.
func (w *walker) filterUpdated(n *entities.Node, updated []string, rules vo.Inheritance) []string {
	kept := make([]string, 0, len(updated))
	for _, p := range updated {
		t := rules.Rule(p).InheritanceType.OrDefault()
		if t == vo.NeverInherit {
			continue
		}
		own := n.Inheritance.Rule(p)
		if p == vo.PropertyParts && !own.IsInherited() {
			continue
		}
		if (t == vo.InheritUnlessAlreadyOverRidden && own.IsInherited()) || t == vo.AlwaysInherit {
			kept = append(kept, p)
		}
	}
	return kept
}

func hasRule(n *entities.Node, p string) bool {
	_, ok := n.Inheritance[p]
	return ok
}

// SetInheritanceType changes the rule types of nodeID and pushes values to
// specializations that inherit the property from it. With alwaysInherit the
// value is overwritten; with inheritUnlessAlreadyOverRidden it is only
// filled in when missing. It returns the properties whose type changed.
func SetInheritanceType(g *Graph, nodeID string, types map[string]vo.InheritanceType) ([]string, error) {
	n, err := g.Node(nodeID)
	if err != nil {
		return nil, err
	}

	var changed []string
	for _, p := range slices.Sorted(maps.Keys(types)) {
		t := types[p]
		rule, ok := n.Inheritance[p]
		if ok && rule.InheritanceType == t {
			continue
		}
		rule.InheritanceType = t
		n.Inheritance[p] = rule
		changed = append(changed, p)
	}
	if len(changed) == 0 {
		return nil, nil
	}
	g.Touch(nodeID)

	w := newWalker(g)
	w.visited[nodeID] = true
	specs, err := g.specializations(n)
	if err != nil {
		return nil, err
	}
	for _, id := range specs {
		if err := w.pushTypes(id, n, changed, 1); err != nil {
			return nil, err
		}
	}
	return changed, nil
}

func (w *walker) pushTypes(id string, origin *entities.Node, properties []string, depth int) error {
	if depth > w.g.maxDepth {
		return ErrMaxDepth
	}
	if w.visited[id] {
		return nil
	}
	w.visited[id] = true

	spec, err := w.g.Node(id)
	if err != nil {
		return err
	}

	updated := false
	for _, p := range properties {
		if spec.Inheritance.Rule(p).RefID() != origin.ID {
			continue
		}
		value, ok := origin.Properties[p]
		if !ok {
			continue
		}
		switch origin.Inheritance.Rule(p).InheritanceType {
		case vo.AlwaysInherit:
			spec.Properties[p] = vo.DeepCopy(value)
			updated = true
		case vo.InheritUnlessAlreadyOverRidden:
			if !spec.HasProperty(p) {
				spec.Properties[p] = vo.DeepCopy(value)
				updated = true
			}
		}
	}
	if !updated {
		return nil
	}
	w.g.Touch(id)

	specs, err := w.g.specializations(spec)
	if err != nil {
		return err
	}
	for _, child := range specs {
		if err := w.pushTypes(child, origin, properties, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Regenerate rebuilds the inheritance of nodeID from its first
// generalization and hands the properties whose value changed down to its
// specializations. It returns those properties.
func Regenerate(g *Graph, nodeID string) ([]string, error) {
	n, err := g.Node(nodeID)
	if err != nil {
		return nil, err
	}
	parentID := n.FirstGeneralization()
	if parentID == "" {
		return nil, ErrNoGeneralization
	}
	parent, err := g.Node(parentID)
	if err != nil {
		return nil, err
	}

	generated := GenerateInheritance(parent)
	for p, rule := range n.Inheritance {
		if _, ok := generated[p]; !ok {
			generated[p] = rule
		}
	}
	props := InheritProperties(parent, n.Properties, generated)

	var affected []string
	introduced := map[string]bool{}
	for _, p := range slices.Sorted(maps.Keys(props)) {
		old, ok := n.Properties[p]
		if !ok {
			introduced[p] = true
		}
		if !ok || !vo.ValuesEqual(old, props[p]) {
			affected = append(affected, p)
		}
	}

	n.Inheritance = generated
	n.Properties = props
	for p := range props {
		if t, ok := parent.PropertyType[p]; ok {
			if _, has := n.PropertyType[p]; !has {
				n.PropertyType[p] = t
			}
		}
	}
	g.Touch(nodeID)

	if len(affected) == 0 {
		return nil, nil
	}

	// Descendants record the owner of each value, so group by owner.
	// Properties the node did not have before reach descendants as additions.
	byOwner := map[string]*Change{}
	for _, p := range affected {
		owner := n.Inheritance.Source(p, nodeID)
		c, ok := byOwner[owner]
		if !ok {
			c = &Change{}
			byOwner[owner] = c
		}
		if introduced[p] {
			c.Added = append(c.Added, Addition{Name: p, Type: n.PropertyType[p], Value: props[p]})
		} else {
			c.Updated = append(c.Updated, p)
		}
	}
	for _, owner := range slices.Sorted(maps.Keys(byOwner)) {
		w := newWalker(g)
		w.start(nodeID, affected)
		if err := w.children(n, *byOwner[owner], n.Inheritance.Clone(), owner, nodeID, 0); err != nil {
			return nil, err
		}
	}
	return affected, nil
}
