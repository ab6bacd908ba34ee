package handlers

import (
	"context"

	"go.uber.org/zap"

	"ontology-backend/application/commands"
	"ontology-backend/application/services"
	"ontology-backend/domain/changelog"
	"ontology-backend/domain/core/entities"
	"ontology-backend/domain/core/validators"
	vo "ontology-backend/domain/core/valueobjects"
	"ontology-backend/domain/events"
	"ontology-backend/domain/services/inheritance"
	pkgerrors "ontology-backend/pkg/errors"
)

// LinkHandler handles commands that edit the specializations,
// generalizations, parts and isPartOf of a node
type LinkHandler struct {
	mutator *services.Mutator
	logger  *zap.Logger
}

// NewLinkHandler creates a new link handler
func NewLinkHandler(mutator *services.Mutator, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{mutator: mutator, logger: logger}
}

// checkCycles rejects links that would close a generalization or part cycle.
func checkCycles(s *services.Session, n *entities.Node, rel entities.Relation, ids []string) error {
	switch rel {
	case entities.RelationGeneralizations:
		return validators.CheckGeneralizations(s, n.ID, ids)
	case entities.RelationSpecializations:
		return validators.CheckSpecializations(s, n.ID, ids)
	case entities.RelationParts:
		return validators.CheckParts(s, n.ID, ids)
	default:
		for _, id := range ids {
			if err := validators.CheckParts(s, id, []string{n.ID}); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddLinks links nodes into a relation of NodeID on both sides.
func (h *LinkHandler) AddLinks(ctx context.Context, cmd commands.AddLinksCommand) error {
	rel := entities.Relation(cmd.Relation)
	ids := commands.LinkIDs(cmd.Nodes)
	op := services.Operation{
		Name:      "Add" + cmd.Relation,
		Actor:     cmd.Uname,
		Reasoning: cmd.Reasoning,
		Seeds:     append([]string{cmd.NodeID}, ids...),
	}
	_, err := h.mutator.Execute(ctx, op, func(s *services.Session) error {
		n, err := s.Editable(cmd.NodeID)
		if err != nil {
			return err
		}
		before := n.Relation(rel)
		for _, id := range ids {
			if before.Contains(id) {
				return pkgerrors.Validation(
					"Node %s is already in %s of this node. Use PUT to move it between collections.", id, cmd.Relation).
					WithDetail("nodeId", id)
			}
		}
		if err := s.RequireLive(ids); err != nil {
			return err
		}
		if err := checkCycles(s, n, rel, ids); err != nil {
			return err
		}

		prevFirst := n.FirstGeneralization()
		for _, l := range cmd.Nodes {
			other, err := s.Node(l.ID)
			if err != nil {
				return err
			}
			cs := n.Relation(rel).Clone()
			cs.Add(l, cmd.CollectionName)
			n.SetRelation(rel, cs)
			mirror(s, other, rel.Inverse(), n.ID)
		}
		s.Touch(n)

		switch rel {
		case entities.RelationGeneralizations:
			if err := inheritance.LinkGeneralizations(s.Graph, n.ID, ids); err != nil {
				return engineError(err)
			}
			s.PropagatedFrom(n.ID)
		case entities.RelationSpecializations:
			if err := inheritance.LinkSpecializations(s.Graph, n.ID, ids, nil); err != nil {
				return engineError(err)
			}
			s.PropagatedFrom(n.ID)
		case entities.RelationParts, entities.RelationIsPartOf:
			n.Inheritance[cmd.Relation] = n.Inheritance.Rule(cmd.Relation).WithRef("")
		}
		if err := settle(s, n, rel, prevFirst); err != nil {
			return engineError(err)
		}

		changeType := changelog.ChangeAddElements
		if len(ids) == 1 {
			changeType = changelog.ChangeAddElement
		}
		s.Log(n, changelog.Entry{
			ChangeType:       changeType,
			ModifiedProperty: cmd.Relation,
			PreviousValue:    before,
			NewValue:         n.Relation(rel),
			ChangeDetails:    map[string]any{"addedNodes": ids, "collectionName": collectionOrMain(cmd.CollectionName)},
		})
		s.Emit(events.NewNodeLinksChanged(n.ID, cmd.Relation, ids, nil, s.Actor(), s.Now()))
		s.Index(append([]string{n.ID}, ids...)...)
		return nil
	})
	if err != nil {
		return err
	}

	h.logger.Info("Links added",
		zap.String("nodeID", cmd.NodeID),
		zap.String("relation", cmd.Relation),
		zap.Int("count", len(ids)),
	)
	return nil
}

// RemoveLinks unlinks nodes from a relation of NodeID on both sides.
func (h *LinkHandler) RemoveLinks(ctx context.Context, cmd commands.RemoveLinksCommand) error {
	rel := entities.Relation(cmd.Relation)
	ids := commands.LinkIDs(cmd.Nodes)
	op := services.Operation{
		Name:      "Remove" + cmd.Relation,
		Actor:     cmd.Uname,
		Reasoning: cmd.Reasoning,
		Seeds:     append([]string{cmd.NodeID}, ids...),
	}
	_, err := h.mutator.Execute(ctx, op, func(s *services.Session) error {
		n, err := s.Editable(cmd.NodeID)
		if err != nil {
			return err
		}
		before := n.Relation(rel)
		for _, id := range ids {
			if !before.Contains(id) {
				return pkgerrors.Validation("Node %s is not in %s of this node", id, cmd.Relation).
					WithDetail("nodeId", id)
			}
		}
		switch rel {
		case entities.RelationGeneralizations:
			if err := validators.ValidateGeneralizationRemoval(n, ids); err != nil {
				return err
			}
		case entities.RelationSpecializations:
			for _, id := range ids {
				spec, err := linked(s, id)
				if err != nil {
					return err
				}
				if spec == nil {
					continue
				}
				if err := validators.ValidateGeneralizationRemoval(spec, []string{n.ID}); err != nil {
					return err
				}
			}
		}

		prevFirst := n.FirstGeneralization()
		cs := before.Clone()
		var unlinked []string
		for _, id := range ids {
			cs.Remove(id)
			other, err := linked(s, id)
			if err != nil {
				return err
			}
			if other != nil {
				unmirror(s, other, rel.Inverse(), n.ID)
				unlinked = append(unlinked, id)
			}
		}
		n.SetRelation(rel, cs)
		s.Touch(n)

		switch rel {
		case entities.RelationGeneralizations:
			syncCount(n)
			for _, id := range unlinked {
				if err := inheritance.UnlinkGeneralization(s.Graph, n.ID, id); err != nil {
					return engineError(err)
				}
			}
			s.PropagatedFrom(n.ID)
		case entities.RelationSpecializations:
			if err := inheritance.LinkSpecializations(s.Graph, n.ID, nil, unlinked); err != nil {
				return engineError(err)
			}
			s.PropagatedFrom(n.ID)
		}
		if err := settle(s, n, rel, prevFirst); err != nil {
			return engineError(err)
		}

		changeType := changelog.ChangeRemoveElements
		if len(ids) == 1 {
			changeType = changelog.ChangeRemoveElement
		}
		s.Log(n, changelog.Entry{
			ChangeType:       changeType,
			ModifiedProperty: cmd.Relation,
			PreviousValue:    before,
			NewValue:         n.Relation(rel),
			ChangeDetails:    map[string]any{"removedNodes": ids},
		})
		s.Emit(events.NewNodeLinksChanged(n.ID, cmd.Relation, nil, ids, s.Actor(), s.Now()))
		s.Index(append([]string{n.ID}, unlinked...)...)
		return nil
	})
	if err != nil {
		return err
	}

	h.logger.Info("Links removed",
		zap.String("nodeID", cmd.NodeID),
		zap.String("relation", cmd.Relation),
		zap.Int("count", len(ids)),
	)
	return nil
}

// MoveLinks moves links between two collections of a relation.
func (h *LinkHandler) MoveLinks(ctx context.Context, cmd commands.MoveLinksCommand) error {
	rel := entities.Relation(cmd.Relation)
	ids := commands.LinkIDs(cmd.Nodes)
	op := services.Operation{Name: "Move" + cmd.Relation, Actor: cmd.Uname, Reasoning: cmd.Reasoning, Seeds: []string{cmd.NodeID}}
	_, err := h.mutator.Execute(ctx, op, func(s *services.Session) error {
		n, err := s.Editable(cmd.NodeID)
		if err != nil {
			return err
		}
		before := n.Relation(rel)
		for _, name := range []string{cmd.SourceCollection, cmd.TargetCollection} {
			if !before.Has(name) {
				return pkgerrors.CollectionNotFound(name)
			}
		}
		cs := before.Clone()
		if err := cs.Move(ids, cmd.SourceCollection, cmd.TargetCollection); err != nil {
			return collectionError(err, cmd.SourceCollection)
		}

		prevFirst := n.FirstGeneralization()
		n.SetRelation(rel, cs)
		s.Touch(n)
		if rel == entities.RelationGeneralizations {
			if err := settle(s, n, rel, prevFirst); err != nil {
				return engineError(err)
			}
		}

		s.Log(n, changelog.Entry{
			ChangeType:       changelog.ChangeModifyElements,
			ModifiedProperty: cmd.Relation,
			PreviousValue:    before,
			NewValue:         cs.Clone(),
			ChangeDetails: map[string]any{
				"movedNodes":       ids,
				"sourceCollection": cmd.SourceCollection,
				"targetCollection": cmd.TargetCollection,
			},
		})
		s.Emit(events.NewNodeLinksChanged(n.ID, cmd.Relation, nil, nil, s.Actor(), s.Now()))
		return nil
	})
	if err != nil {
		return err
	}

	h.logger.Info("Links moved",
		zap.String("nodeID", cmd.NodeID),
		zap.String("relation", cmd.Relation),
		zap.String("from", cmd.SourceCollection),
		zap.String("to", cmd.TargetCollection),
	)
	return nil
}

// ReorderLinks moves links to new positions within one collection.
func (h *LinkHandler) ReorderLinks(ctx context.Context, cmd commands.ReorderLinksCommand) error {
	rel := entities.Relation(cmd.Relation)
	ids := commands.LinkIDs(cmd.Nodes)
	collection := collectionOrMain(cmd.CollectionName)
	op := services.Operation{Name: "Reorder" + cmd.Relation, Actor: cmd.Uname, Reasoning: cmd.Reasoning, Seeds: []string{cmd.NodeID}}
	_, err := h.mutator.Execute(ctx, op, func(s *services.Session) error {
		n, err := s.Editable(cmd.NodeID)
		if err != nil {
			return err
		}
		before := n.Relation(rel)
		cs := before.Clone()
		if err := cs.Reorder(ids, cmd.NewIndices, collection); err != nil {
			return collectionError(err, collection)
		}

		prevFirst := n.FirstGeneralization()
		n.SetRelation(rel, cs)
		s.Touch(n)
		if rel == entities.RelationGeneralizations {
			if err := settle(s, n, rel, prevFirst); err != nil {
				return engineError(err)
			}
		}

		s.Log(n, changelog.Entry{
			ChangeType:       changelog.ChangeSortElements,
			ModifiedProperty: cmd.Relation,
			PreviousValue:    before,
			NewValue:         cs.Clone(),
			ChangeDetails:    map[string]any{"collectionName": collection, "newIndices": cmd.NewIndices},
		})
		s.Emit(events.NewNodeLinksChanged(n.ID, cmd.Relation, nil, nil, s.Actor(), s.Now()))
		return nil
	})
	if err != nil {
		return err
	}

	h.logger.Info("Links reordered",
		zap.String("nodeID", cmd.NodeID),
		zap.String("relation", cmd.Relation),
		zap.String("collection", collection),
	)
	return nil
}

// TransferSpecializations moves specializations of NodeID under
// TargetNodeID and re-sources what they inherited.
func (h *LinkHandler) TransferSpecializations(ctx context.Context, cmd commands.TransferSpecializationsCommand) error {
	ids := commands.LinkIDs(cmd.Nodes)
	op := services.Operation{
		Name:      "TransferSpecializations",
		Actor:     cmd.Uname,
		Reasoning: cmd.Reasoning,
		Seeds:     append([]string{cmd.NodeID, cmd.TargetNodeID}, ids...),
	}
	_, err := h.mutator.Execute(ctx, op, func(s *services.Session) error {
		src, err := s.Editable(cmd.NodeID)
		if err != nil {
			return err
		}
		dst, err := s.Editable(cmd.TargetNodeID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if !src.Specializations.Contains(id) {
				return pkgerrors.Validation("Node %s is not a specialization of the source node", id).
					WithDetail("nodeId", id)
			}
		}
		if err := s.RequireLive(ids); err != nil {
			return err
		}
		if err := validators.CheckSpecializations(s, dst.ID, ids); err != nil {
			return err
		}

		srcBefore := src.Specializations.Clone()
		dstBefore := dst.Specializations.Clone()
		for _, l := range cmd.Nodes {
			spec, err := s.Node(l.ID)
			if err != nil {
				return err
			}
			prevFirst := spec.FirstGeneralization()
			replaceLink(spec, entities.RelationGeneralizations, src.ID, dst.ID)
			syncCount(spec)
			s.Touch(spec)

			srcSpecs := src.Specializations.Clone()
			srcSpecs.Remove(l.ID)
			src.Specializations = srcSpecs
			dstSpecs := dst.Specializations.Clone()
			dstSpecs.Add(l, cmd.TargetCollection)
			dst.Specializations = dstSpecs

			if err := inheritance.LinkGeneralizations(s.Graph, spec.ID, []string{dst.ID}); err != nil {
				return engineError(err)
			}
			if err := inheritance.UnlinkGeneralization(s.Graph, spec.ID, src.ID); err != nil {
				return engineError(err)
			}
			if err := settle(s, spec, entities.RelationGeneralizations, prevFirst); err != nil {
				return engineError(err)
			}
		}
		s.Touch(src)
		s.Touch(dst)
		s.PropagatedFrom(dst.ID)

		s.Log(src, changelog.Entry{
			ChangeType:       changelog.ChangeRemoveElements,
			ModifiedProperty: string(entities.RelationSpecializations),
			PreviousValue:    srcBefore,
			NewValue:         src.Specializations.Clone(),
			ChangeDetails:    map[string]any{"transferredTo": dst.ID, "nodes": ids},
		})
		s.Log(dst, changelog.Entry{
			ChangeType:       changelog.ChangeAddElements,
			ModifiedProperty: string(entities.RelationSpecializations),
			PreviousValue:    dstBefore,
			NewValue:         dst.Specializations.Clone(),
			ChangeDetails:    map[string]any{"transferredFrom": src.ID, "nodes": ids},
		})
		s.Emit(events.NewNodeLinksChanged(src.ID, string(entities.RelationSpecializations), nil, ids, s.Actor(), s.Now()))
		s.Emit(events.NewNodeLinksChanged(dst.ID, string(entities.RelationSpecializations), ids, nil, s.Actor(), s.Now()))
		s.Index(append([]string{src.ID, dst.ID}, ids...)...)
		return nil
	})
	if err != nil {
		return err
	}

	h.logger.Info("Specializations transferred",
		zap.String("from", cmd.NodeID),
		zap.String("to", cmd.TargetNodeID),
		zap.Int("count", len(ids)),
	)
	return nil
}

// replaceLink swaps from for to in rel of n, keeping its position. When to
// is already linked, from is just removed.
func replaceLink(n *entities.Node, rel entities.Relation, from, to string) {
	cs := n.Relation(rel).Clone()
	if cs.Contains(to) {
		cs.Remove(from)
		n.SetRelation(rel, cs)
		return
	}
	for i := range cs {
		for j := range cs[i].Nodes {
			if cs[i].Nodes[j].ID == from {
				cs[i].Nodes[j] = vo.Link{ID: to}
			}
		}
	}
	n.SetRelation(rel, cs)
}

func collectionOrMain(name string) string {
	if name == "" {
		return vo.MainCollection
	}
	return name
}
