package handlers

import (
	"context"
	"maps"
	"slices"

	"go.uber.org/zap"

	"ontology-backend/application/commands"
	"ontology-backend/application/services"
	"ontology-backend/domain/changelog"
	vo "ontology-backend/domain/core/valueobjects"
	"ontology-backend/domain/events"
	"ontology-backend/domain/services/inheritance"
	pkgerrors "ontology-backend/pkg/errors"
)

// InheritanceHandler handles inheritance rule commands
type InheritanceHandler struct {
	mutator *services.Mutator
	logger  *zap.Logger
}

// NewInheritanceHandler creates a new inheritance handler
func NewInheritanceHandler(mutator *services.Mutator, logger *zap.Logger) *InheritanceHandler {
	return &InheritanceHandler{mutator: mutator, logger: logger}
}

// UpdateInheritance changes the inheritance types of several properties.
func (h *InheritanceHandler) UpdateInheritance(ctx context.Context, cmd commands.UpdateInheritanceCommand) error {
	types := make(map[string]vo.InheritanceType, len(cmd.Properties))
	for name, rule := range cmd.Properties {
		types[name] = vo.InheritanceType(rule.InheritanceType)
	}
	return h.setTypes(ctx, "UpdateInheritance", cmd.Audit, cmd.NodeID, types)
}

// UpdatePropertyInheritance changes the inheritance type of one property.
func (h *InheritanceHandler) UpdatePropertyInheritance(ctx context.Context, cmd commands.UpdatePropertyInheritanceCommand) error {
	types := map[string]vo.InheritanceType{cmd.PropertyName: vo.InheritanceType(cmd.InheritanceType)}
	return h.setTypes(ctx, "UpdatePropertyInheritance", cmd.Audit, cmd.NodeID, types)
}

func (h *InheritanceHandler) setTypes(ctx context.Context, name string, audit commands.Audit, nodeID string, types map[string]vo.InheritanceType) error {
	op := services.Operation{Name: name, Actor: audit.Uname, Reasoning: audit.Reasoning, Seeds: []string{nodeID}}
	_, err := h.mutator.Execute(ctx, op, func(s *services.Session) error {
		n, err := s.Editable(nodeID)
		if err != nil {
			return err
		}
		for _, p := range slices.Sorted(maps.Keys(types)) {
			if _, ok := n.Inheritance[p]; !ok && !n.HasProperty(p) {
				return pkgerrors.PropertyNotFound(n.ID, p)
			}
		}
		before := n.Inheritance.Clone()

		changed, err := inheritance.SetInheritanceType(s.Graph, n.ID, types)
		if err != nil {
			return engineError(err)
		}
		if len(changed) == 0 {
			return nil
		}

		prev := make(map[string]vo.InheritanceRule, len(changed))
		next := make(map[string]vo.InheritanceRule, len(changed))
		for _, p := range changed {
			prev[p] = before.Rule(p)
			next[p] = n.Inheritance.Rule(p)
		}
		s.PropagatedFrom(n.ID)
		s.Log(n, changelog.Entry{
			ChangeType:       changelog.ChangeModifyElements,
			ModifiedProperty: "inheritance",
			PreviousValue:    prev,
			NewValue:         next,
		})
		s.Emit(events.NewInheritanceChanged(n.ID, ruleTypes(n.Inheritance, changed), s.Actor(), s.Now()))
		return nil
	})
	if err != nil {
		return err
	}

	h.logger.Info("Inheritance updated", zap.String("nodeID", nodeID), zap.Int("properties", len(types)))
	return nil
}

// RegenerateInheritance rebuilds a node's inheritance from its first
// generalization.
func (h *InheritanceHandler) RegenerateInheritance(ctx context.Context, cmd commands.RegenerateInheritanceCommand) error {
	op := services.Operation{Name: "RegenerateInheritance", Actor: cmd.Uname, Reasoning: cmd.Reasoning, Seeds: []string{cmd.NodeID}}
	_, err := h.mutator.Execute(ctx, op, func(s *services.Session) error {
		n, err := s.Editable(cmd.NodeID)
		if err != nil {
			return err
		}
		before := n.Inheritance.Clone()

		s.PropagatedFrom(n.ID)
		affected, err := inheritance.Regenerate(s.Graph, n.ID)
		if err != nil {
			return engineError(err)
		}
		s.Log(n, changelog.Entry{
			ChangeType:       changelog.ChangeModifyElements,
			ModifiedProperty: "inheritance",
			PreviousValue:    before,
			NewValue:         n.Inheritance.Clone(),
			ChangeDetails:    map[string]any{"affectedProperties": affected},
		})
		s.Emit(events.NewInheritanceChanged(n.ID, ruleTypes(n.Inheritance, affected), s.Actor(), s.Now()))
		s.Index(n.ID)
		return nil
	})
	if err != nil {
		return err
	}

	h.logger.Info("Inheritance regenerated", zap.String("nodeID", cmd.NodeID))
	return nil
}
