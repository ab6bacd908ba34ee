package handlers

import (
	"errors"

	"ontology-backend/application/services"
	"ontology-backend/domain/core/entities"
	vo "ontology-backend/domain/core/valueobjects"
	"ontology-backend/domain/services/inheritance"
	pkgerrors "ontology-backend/pkg/errors"
)

// linkBoth puts target into rel of n under collection and mirrors n into the
// main collection of the inverse relation of target.
func linkBoth(s *services.Session, n *entities.Node, rel entities.Relation, target *entities.Node, collection string) {
	cs := n.Relation(rel).Clone()
	if cs.Add(vo.Link{ID: target.ID}, collection) {
		n.SetRelation(rel, cs)
		s.Touch(n)
	}
	mirror(s, target, rel.Inverse(), n.ID)
}

// mirror adds id to rel of n when it is not linked yet.
func mirror(s *services.Session, n *entities.Node, rel entities.Relation, id string) {
	cs := n.Relation(rel).Clone()
	if !cs.Add(vo.Link{ID: id}, vo.MainCollection) {
		return
	}
	n.SetRelation(rel, cs)
	syncCount(n)
	s.Touch(n)
}

// unmirror removes id from rel of n.
func unmirror(s *services.Session, n *entities.Node, rel entities.Relation, id string) {
	cs := n.Relation(rel).Clone()
	if !cs.Remove(id) {
		return
	}
	n.SetRelation(rel, cs)
	syncCount(n)
	s.Touch(n)
}

// linked returns the node behind a link, or nil when the link dangles.
func linked(s *services.Session, id string) (*entities.Node, error) {
	n, err := s.Node(id)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return n, nil
}

func syncCount(n *entities.Node) {
	n.NumberOfGeneralizations = len(n.Generalizations.IDs())
}

// settle runs the inheritance follow-up of a relation edit on n. prevFirst is
// the first generalization before the edit.
func settle(s *services.Session, n *entities.Node, rel entities.Relation, prevFirst string) error {
	switch rel {
	case entities.RelationGeneralizations:
		syncCount(n)
		first := n.FirstGeneralization()
		if first == "" || first == prevFirst {
			return nil
		}
		s.PropagatedFrom(n.ID)
		_, err := inheritance.Regenerate(s.Graph, n.ID)
		return err
	case entities.RelationParts:
		s.PropagatedFrom(n.ID)
		return inheritance.Propagate(s.Graph, n.ID, inheritance.Change{Updated: []string{vo.PropertyParts}})
	}
	return nil
}

// collectionError maps collection errors to API errors.
func collectionError(err error, name string) error {
	switch {
	case errors.Is(err, vo.ErrCollectionExists):
		return pkgerrors.CollectionExists(name)
	case errors.Is(err, vo.ErrCollectionNotFound):
		return pkgerrors.CollectionNotFound(name)
	case errors.Is(err, vo.ErrReservedCollection):
		return pkgerrors.Validation(`The "main" collection is reserved`)
	case errors.Is(err, vo.ErrLinkNotFound):
		return pkgerrors.Validation("%s", err.Error())
	}
	return pkgerrors.Validation("%s", err.Error())
}

// engineError turns the few plain engine errors into API errors. Anything
// else, including unloaded nodes, passes through.
func engineError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, inheritance.ErrNoGeneralization) {
		return pkgerrors.Validation("Node has no generalization to inherit from")
	}
	if errors.Is(err, inheritance.ErrMaxDepth) {
		return pkgerrors.NewInternalError(err.Error()).WithCause(err)
	}
	return err
}

func diffIDs(before, after []string) (added, removed []string) {
	inBefore := make(map[string]bool, len(before))
	for _, id := range before {
		inBefore[id] = true
	}
	inAfter := make(map[string]bool, len(after))
	for _, id := range after {
		inAfter[id] = true
		if !inBefore[id] {
			added = append(added, id)
		}
	}
	for _, id := range before {
		if !inAfter[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}
