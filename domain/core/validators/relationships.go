// Package validators holds the relationship rules every link mutation must
// satisfy before the inheritance engine runs.
package validators

import (
	"fmt"
	"sort"

	"ontology-backend/domain/core/entities"
	pkgerrors "ontology-backend/pkg/errors"
)

// NodeLookup resolves loaded nodes by ID. A missing node is reported as an
// error and treated as a dead end by the traversals below.
type NodeLookup interface {
	Node(id string) (*entities.Node, error)
}

// WouldCreateCircularReference reports whether making candidateParentID a
// generalization of nodeID closes a cycle. It walks upward from the
// candidate through generalizations looking for nodeID.
func WouldCreateCircularReference(lookup NodeLookup, nodeID, candidateParentID string) bool {
	if nodeID == candidateParentID {
		return true
	}
	visited := map[string]bool{}
	stack := []string{candidateParentID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		n, err := lookup.Node(id)
		if err != nil {
			continue
		}
		for _, gen := range n.Generalizations.IDs() {
			if gen == nodeID {
				return true
			}
			if !visited[gen] {
				stack = append(stack, gen)
			}
		}
	}
	return false
}

// CheckGeneralizations rejects candidates that would make nodeID its own
// ancestor.
func CheckGeneralizations(lookup NodeLookup, nodeID string, candidates []string) error {
	for _, id := range candidates {
		if WouldCreateCircularReference(lookup, nodeID, id) {
			return pkgerrors.CircularReference(
				fmt.Sprintf("Adding generalization '%s' would create a circular reference", id)).
				WithDetail("nodeId", nodeID)
		}
	}
	return nil
}

// CheckSpecializations rejects candidates that are already ancestors of
// nodeID.
func CheckSpecializations(lookup NodeLookup, nodeID string, candidates []string) error {
	for _, id := range candidates {
		if WouldCreateCircularReference(lookup, id, nodeID) {
			return pkgerrors.CircularReference(
				fmt.Sprintf("Adding specialization '%s' would create a circular reference", id)).
				WithDetail("nodeId", nodeID)
		}
	}
	return nil
}

// DetectCircularReferences returns the IDs present in both lists, sorted.
func DetectCircularReferences(generalizations, specializations []string) []string {
	gens := make(map[string]bool, len(generalizations))
	for _, id := range generalizations {
		gens[id] = true
	}
	seen := map[string]bool{}
	var out []string
	for _, id := range specializations {
		if gens[id] && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// CheckCircularReferences wraps DetectCircularReferences into an error.
func CheckCircularReferences(generalizations, specializations []string) error {
	if dup := DetectCircularReferences(generalizations, specializations); len(dup) > 0 {
		return pkgerrors.CircularReference(
			"A node cannot be both a generalization and a specialization").
			WithDetail("nodeIds", dup)
	}
	return nil
}

// DuplicateNodeIDs returns, per relation, the IDs linked more than once.
func DuplicateNodeIDs(relations map[entities.Relation][]string) map[entities.Relation][]string {
	out := map[entities.Relation][]string{}
	for rel, ids := range relations {
		count := map[string]int{}
		var dup []string
		for _, id := range ids {
			count[id]++
			if count[id] == 2 {
				dup = append(dup, id)
			}
		}
		if len(dup) > 0 {
			out[rel] = dup
		}
	}
	return out
}

// ValidateNoDuplicateNodeIDs rejects a node whose relations link the same
// node twice.
func ValidateNoDuplicateNodeIDs(n *entities.Node) error {
	relations := map[entities.Relation][]string{}
	for _, rel := range []entities.Relation{
		entities.RelationSpecializations,
		entities.RelationGeneralizations,
		entities.RelationParts,
		entities.RelationIsPartOf,
	} {
		relations[rel] = n.Relation(rel).IDs()
	}
	dups := DuplicateNodeIDs(relations)
	if len(dups) == 0 {
		return nil
	}
	names := make([]string, 0, len(dups))
	details := make(map[string]interface{}, len(dups))
	for rel, ids := range dups {
		names = append(names, string(rel))
		details[string(rel)] = ids
	}
	sort.Strings(names)
	return pkgerrors.Validation("Duplicate node IDs found in %v", names).WithDetails(details)
}

// ValidateGeneralizationRemoval refuses to strip every generalization from
// a node.
func ValidateGeneralizationRemoval(n *entities.Node, removeIDs []string) error {
	remove := make(map[string]bool, len(removeIDs))
	for _, id := range removeIDs {
		remove[id] = true
	}
	current := n.Generalizations.IDs()
	remaining := 0
	for _, id := range current {
		if !remove[id] {
			remaining++
		}
	}
	if len(current) > 0 && remaining == 0 {
		return pkgerrors.LastGeneralization(n.ID)
	}
	return nil
}

// BlockingSpecializations returns the specializations of n whose only
// generalization is n. Unloaded specializations are skipped.
func BlockingSpecializations(lookup NodeLookup, n *entities.Node) []string {
	var blocking []string
	for _, id := range n.Specializations.IDs() {
		spec, err := lookup.Node(id)
		if err != nil || spec.Deleted {
			continue
		}
		gens := spec.Generalizations.IDs()
		if len(gens) == 1 && gens[0] == n.ID {
			blocking = append(blocking, id)
		}
	}
	return blocking
}

// CheckDeletable enforces that nothing depends on n as its sole parent.
func CheckDeletable(lookup NodeLookup, n *entities.Node) error {
	if n.Deleted {
		return pkgerrors.NodeAlreadyDeleted(n.ID)
	}
	if blocking := BlockingSpecializations(lookup, n); len(blocking) > 0 {
		return pkgerrors.HasSpecializations(n.ID, blocking)
	}
	return nil
}

// WouldCreateCircularPart reports whether linking partID as a part of
// containerID makes containerID a part of itself.
func WouldCreateCircularPart(lookup NodeLookup, containerID, partID string) bool {
	if containerID == partID {
		return true
	}
	visited := map[string]bool{}
	stack := []string{partID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		n, err := lookup.Node(id)
		if err != nil {
			continue
		}
		for _, child := range n.Relation(entities.RelationParts).IDs() {
			if child == containerID {
				return true
			}
			if !visited[child] {
				stack = append(stack, child)
			}
		}
	}
	return false
}

// CheckParts rejects parts that would make containerID contain itself.
func CheckParts(lookup NodeLookup, containerID string, partIDs []string) error {
	for _, id := range partIDs {
		if WouldCreateCircularPart(lookup, containerID, id) {
			return pkgerrors.CircularReference(
				fmt.Sprintf("Adding part '%s' would create a circular part reference", id)).
				WithDetail("nodeId", containerID)
		}
	}
	return nil
}
