package inheritance

import (
	"fmt"
)

// ResolveSource follows the ref chain of property from nodeID to the node
// that owns the value.
func ResolveSource(g *Graph, nodeID, property string) (string, error) {
	seen := map[string]bool{}
	current := nodeID
	for {
		if seen[current] {
			return "", fmt.Errorf("inheritance cycle on property %q at node %s", property, current)
		}
		seen[current] = true
		n, err := g.Node(current)
		if err != nil {
			return "", err
		}
		ref := n.Inheritance.Rule(property).RefID()
		if ref == "" || ref == current {
			return current, nil
		}
		current = ref
	}
}

// IsInheritedThrough reports whether property of nodeID reaches viaID
// somewhere along its ref chain.
func IsInheritedThrough(g *Graph, nodeID, property, viaID string) bool {
	seen := map[string]bool{}
	current := nodeID
	for !seen[current] {
		seen[current] = true
		n, err := g.Node(current)
		if err != nil {
			return false
		}
		ref := n.Inheritance.Rule(property).RefID()
		if ref == "" {
			return false
		}
		if ref == viaID {
			return true
		}
		current = ref
	}
	return false
}
