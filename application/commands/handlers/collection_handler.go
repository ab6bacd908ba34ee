package handlers

import (
	"context"

	"go.uber.org/zap"

	"ontology-backend/application/commands"
	"ontology-backend/application/services"
	"ontology-backend/domain/changelog"
	"ontology-backend/domain/core/entities"
	vo "ontology-backend/domain/core/valueobjects"
	"ontology-backend/domain/events"
)

// CollectionHandler handles commands on the named collections of a relation
type CollectionHandler struct {
	mutator *services.Mutator
	logger  *zap.Logger
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(mutator *services.Mutator, logger *zap.Logger) *CollectionHandler {
	return &CollectionHandler{mutator: mutator, logger: logger}
}

// edit runs fn on a copy of the relation and commits the result with one
// change-log entry.
func (h *CollectionHandler) edit(
	ctx context.Context,
	name string,
	audit commands.Audit,
	nodeID, relation string,
	changeType changelog.ChangeType,
	fn func(cs *vo.Collections) (map[string]any, error),
) error {
	rel := entities.Relation(relation)
	op := services.Operation{Name: name, Actor: audit.Uname, Reasoning: audit.Reasoning, Seeds: []string{nodeID}}
	_, err := h.mutator.Execute(ctx, op, func(s *services.Session) error {
		n, err := s.Editable(nodeID)
		if err != nil {
			return err
		}
		before := n.Relation(rel)
		cs := before.Clone()
		details, err := fn(&cs)
		if err != nil {
			return err
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
			ChangeType:       changeType,
			ModifiedProperty: relation,
			PreviousValue:    before,
			NewValue:         cs.Clone(),
			ChangeDetails:    details,
		})
		s.Emit(events.NewCollectionsChanged(n.ID, relation, cs.Names(), s.Actor(), s.Now()))
		return nil
	})
	if err != nil {
		return err
	}

	h.logger.Info("Collections changed",
		zap.String("operation", name),
		zap.String("nodeID", nodeID),
		zap.String("relation", relation),
	)
	return nil
}

// CreateCollections adds empty collections to a relation.
func (h *CollectionHandler) CreateCollections(ctx context.Context, cmd commands.CreateCollectionsCommand) error {
	return h.edit(ctx, "CreateCollections", cmd.Audit, cmd.NodeID, cmd.Relation, changelog.ChangeAddCollection,
		func(cs *vo.Collections) (map[string]any, error) {
			for _, name := range cmd.Names {
				if err := cs.CreateCollection(name); err != nil {
					return nil, collectionError(err, name)
				}
			}
			return map[string]any{"collectionNames": cmd.Names}, nil
		})
}

// DeleteCollection removes a collection; its links return to main.
func (h *CollectionHandler) DeleteCollection(ctx context.Context, cmd commands.DeleteCollectionCommand) error {
	return h.edit(ctx, "DeleteCollection", cmd.Audit, cmd.NodeID, cmd.Relation, changelog.ChangeDeleteCollection,
		func(cs *vo.Collections) (map[string]any, error) {
			if err := cs.DeleteCollection(cmd.CollectionName); err != nil {
				return nil, collectionError(err, cmd.CollectionName)
			}
			return map[string]any{"collectionName": cmd.CollectionName}, nil
		})
}

// RenameCollection renames a collection.
func (h *CollectionHandler) RenameCollection(ctx context.Context, cmd commands.RenameCollectionCommand) error {
	return h.edit(ctx, "RenameCollection", cmd.Audit, cmd.NodeID, cmd.Relation, changelog.ChangeEditCollection,
		func(cs *vo.Collections) (map[string]any, error) {
			if err := cs.RenameCollection(cmd.CollectionName, cmd.NewName); err != nil {
				if cs.Has(cmd.CollectionName) {
					return nil, collectionError(err, cmd.NewName)
				}
				return nil, collectionError(err, cmd.CollectionName)
			}
			return map[string]any{"oldName": cmd.CollectionName, "newName": cmd.NewName}, nil
		})
}

// SortCollections reorders the collections of a relation.
func (h *CollectionHandler) SortCollections(ctx context.Context, cmd commands.SortCollectionsCommand) error {
	return h.edit(ctx, "SortCollections", cmd.Audit, cmd.NodeID, cmd.Relation, changelog.ChangeSortCollections,
		func(cs *vo.Collections) (map[string]any, error) {
			for _, name := range cmd.Order {
				if !cs.Has(name) {
					return nil, collectionError(vo.ErrCollectionNotFound, name)
				}
			}
			if err := cs.SortCollections(cmd.Order); err != nil {
				return nil, collectionError(err, "")
			}
			return map[string]any{"order": cmd.Order}, nil
		})
}
