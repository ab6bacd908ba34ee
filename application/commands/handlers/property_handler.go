package handlers

import (
	"context"

	"go.uber.org/zap"

	"ontology-backend/application/commands"
	"ontology-backend/application/services"
	"ontology-backend/domain/changelog"
	vo "ontology-backend/domain/core/valueobjects"
	"ontology-backend/domain/events"
	"ontology-backend/domain/services/inheritance"
	pkgerrors "ontology-backend/pkg/errors"
)

// PropertyHandler handles property commands
type PropertyHandler struct {
	mutator *services.Mutator
	logger  *zap.Logger
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(mutator *services.Mutator, logger *zap.Logger) *PropertyHandler {
	return &PropertyHandler{mutator: mutator, logger: logger}
}

// AddProperty adds a property to a node and to every specialization that
// lacks it.
func (h *PropertyHandler) AddProperty(ctx context.Context, cmd commands.AddPropertyCommand) error {
	op := services.Operation{Name: "AddProperty", Actor: cmd.Uname, Reasoning: cmd.Reasoning, Seeds: []string{cmd.NodeID}}
	_, err := h.mutator.Execute(ctx, op, func(s *services.Session) error {
		n, err := s.Editable(cmd.NodeID)
		if err != nil {
			return err
		}
		if n.HasProperty(cmd.PropertyName) {
			return pkgerrors.PropertyExists(cmd.PropertyName)
		}

		propertyType := cmd.PropertyType
		value := vo.NormalizeTypedValue(propertyType, cmd.Value)
		if propertyType == "" {
			propertyType = vo.InferType(value)
		}
		if err := vo.CheckType(propertyType, value); err != nil {
			return pkgerrors.Validation("%s", err.Error())
		}

		rule := vo.NewInheritanceRule("", vo.InheritanceType(cmd.InheritanceType))
		n.SetProperty(cmd.PropertyName, value, propertyType, rule)
		s.Log(n, changelog.Entry{
			ChangeType:       changelog.ChangeAddProperty,
			ModifiedProperty: cmd.PropertyName,
			NewValue:         value,
			ChangeDetails:    map[string]any{"propertyType": propertyType, "inheritanceType": string(rule.InheritanceType)},
		})

		s.PropagatedFrom(n.ID)
		added := inheritance.Addition{Name: cmd.PropertyName, Type: propertyType, Value: value}
		if err := inheritance.Propagate(s.Graph, n.ID, inheritance.Change{Added: []inheritance.Addition{added}}); err != nil {
			return engineError(err)
		}
		s.Emit(events.NewNodeUpdated(n.ID, []string{cmd.PropertyName}, s.Actor(), s.Now()))
		s.Index(n.ID)
		return nil
	})
	if err != nil {
		return err
	}

	h.logger.Info("Property added",
		zap.String("nodeID", cmd.NodeID),
		zap.String("property", cmd.PropertyName),
	)
	return nil
}

// UpdateProperties changes property values and, optionally, their
// inheritance types in one operation.
func (h *PropertyHandler) UpdateProperties(ctx context.Context, cmd commands.UpdatePropertiesCommand) error {
	op := services.Operation{Name: "UpdateProperties", Actor: cmd.Uname, Reasoning: cmd.Reasoning, Seeds: []string{cmd.NodeID}}
	_, err := h.mutator.Execute(ctx, op, func(s *services.Session) error {
		n, err := s.Editable(cmd.NodeID)
		if err != nil {
			return err
		}

		var updated []string
		types := map[string]vo.InheritanceType{}
		for _, u := range cmd.Updates {
			if vo.IsCoreProperty(u.PropertyName) {
				return pkgerrors.Validation("Use the %s endpoints to change '%s'", u.PropertyName, u.PropertyName)
			}
			prev, ok := n.Properties[u.PropertyName]
			if !ok {
				return pkgerrors.PropertyNotFound(n.ID, u.PropertyName)
			}
			if u.InheritanceType != "" {
				types[u.PropertyName] = vo.InheritanceType(u.InheritanceType)
			}

			propertyType := n.PropertyType[u.PropertyName]
			value := vo.NormalizeTypedValue(propertyType, u.Value)
			if vo.ValuesEqual(prev, value) {
				continue
			}
			if err := vo.CheckType(propertyType, value); err != nil {
				return pkgerrors.Validation("%s", err.Error()).WithDetail("property", u.PropertyName)
			}
			n.Properties[u.PropertyName] = value
			s.Log(n, changelog.Entry{
				ChangeType:       changelog.ChangeModifyElements,
				ModifiedProperty: u.PropertyName,
				PreviousValue:    prev,
				NewValue:         value,
			})
			updated = append(updated, u.PropertyName)
		}

		if len(updated) > 0 {
			s.PropagatedFrom(n.ID)
			if err := inheritance.Propagate(s.Graph, n.ID, inheritance.Change{Updated: updated}); err != nil {
				return engineError(err)
			}
		}
		var retyped []string
		if len(types) > 0 {
			retyped, err = inheritance.SetInheritanceType(s.Graph, n.ID, types)
			if err != nil {
				return engineError(err)
			}
			if len(retyped) > 0 {
				s.PropagatedFrom(n.ID)
				s.Emit(events.NewInheritanceChanged(n.ID, ruleTypes(n.Inheritance, retyped), s.Actor(), s.Now()))
			}
		}
		if len(updated) == 0 && len(retyped) == 0 {
			return nil
		}
		s.Emit(events.NewNodeUpdated(n.ID, append(updated, retyped...), s.Actor(), s.Now()))
		s.Index(n.ID)
		return nil
	})
	if err != nil {
		return err
	}

	h.logger.Info("Properties updated",
		zap.String("nodeID", cmd.NodeID),
		zap.Int("count", len(cmd.Updates)),
	)
	return nil
}

// DeleteProperty removes a property from a node and its specializations.
func (h *PropertyHandler) DeleteProperty(ctx context.Context, cmd commands.DeletePropertyCommand) error {
	op := services.Operation{Name: "DeleteProperty", Actor: cmd.Uname, Reasoning: cmd.Reasoning, Seeds: []string{cmd.NodeID}}
	_, err := h.mutator.Execute(ctx, op, func(s *services.Session) error {
		n, err := s.Editable(cmd.NodeID)
		if err != nil {
			return err
		}
		prev, ok := n.Properties[cmd.PropertyName]
		if !ok {
			return pkgerrors.PropertyNotFound(n.ID, cmd.PropertyName)
		}

		s.PropagatedFrom(n.ID)
		if err := inheritance.Propagate(s.Graph, n.ID, inheritance.Change{Deleted: []string{cmd.PropertyName}}); err != nil {
			return engineError(err)
		}
		s.Log(n, changelog.Entry{
			ChangeType:       changelog.ChangeRemoveProperty,
			ModifiedProperty: cmd.PropertyName,
			PreviousValue:    prev,
		})
		s.Emit(events.NewNodeUpdated(n.ID, []string{cmd.PropertyName}, s.Actor(), s.Now()))
		s.Index(n.ID)
		return nil
	})
	if err != nil {
		return err
	}

	h.logger.Info("Property deleted", zap.String("nodeID", cmd.NodeID), zap.String("property", cmd.PropertyName))
	return nil
}

// RenameProperty renames a property on a node and its specializations.
func (h *PropertyHandler) RenameProperty(ctx context.Context, cmd commands.RenamePropertyCommand) error {
	op := services.Operation{Name: "RenameProperty", Actor: cmd.Uname, Reasoning: cmd.Reasoning, Seeds: []string{cmd.NodeID}}
	_, err := h.mutator.Execute(ctx, op, func(s *services.Session) error {
		n, err := s.Editable(cmd.NodeID)
		if err != nil {
			return err
		}
		if !n.HasProperty(cmd.PropertyName) {
			return pkgerrors.PropertyNotFound(n.ID, cmd.PropertyName)
		}
		if n.HasProperty(cmd.NewName) {
			return pkgerrors.PropertyExists(cmd.NewName)
		}

		s.PropagatedFrom(n.ID)
		rename := inheritance.Rename{From: cmd.PropertyName, To: cmd.NewName}
		if err := inheritance.Propagate(s.Graph, n.ID, inheritance.Change{Renamed: []inheritance.Rename{rename}}); err != nil {
			return engineError(err)
		}
		if by, ok := n.ContributorsByProperty[cmd.PropertyName]; ok {
			n.ContributorsByProperty[cmd.NewName] = by
			delete(n.ContributorsByProperty, cmd.PropertyName)
		}
		s.Log(n, changelog.Entry{
			ChangeType:       changelog.ChangeEditProperty,
			ModifiedProperty: cmd.NewName,
			PreviousValue:    cmd.PropertyName,
			NewValue:         cmd.NewName,
		})
		s.Emit(events.NewNodeUpdated(n.ID, []string{cmd.PropertyName, cmd.NewName}, s.Actor(), s.Now()))
		s.Index(n.ID)
		return nil
	})
	if err != nil {
		return err
	}

	h.logger.Info("Property renamed",
		zap.String("nodeID", cmd.NodeID),
		zap.String("from", cmd.PropertyName),
		zap.String("to", cmd.NewName),
	)
	return nil
}

func ruleTypes(rules vo.Inheritance, properties []string) map[string]string {
	out := make(map[string]string, len(properties))
	for _, p := range properties {
		out[p] = string(rules.Rule(p).InheritanceType)
	}
	return out
}
