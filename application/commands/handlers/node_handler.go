// Package handlers executes ontology commands through the propagation
// mutator.
package handlers

import (
	"context"
	"maps"
	"slices"
	"strings"

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

// NodeHandler handles node lifecycle commands
type NodeHandler struct {
	mutator *services.Mutator
	logger  *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(mutator *services.Mutator, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{mutator: mutator, logger: logger}
}

// relationValue reads a link-valued request property. Nil and empty arrays
// become an empty main collection.
func relationValue(v any) vo.Collections {
	if v == nil {
		return vo.NewCollections()
	}
	cs, ok := vo.AsCollections(vo.NormalizeTypedValue(vo.PropertyParts, v))
	if !ok {
		return vo.NewCollections()
	}
	return vo.Normalize(cs)
}

// CreateNode creates a node below its first generalization and links it on
// both sides.
func (h *NodeHandler) CreateNode(ctx context.Context, cmd commands.CreateNodeCommand) error {
	gens := vo.Normalize(cmd.Generalizations)
	specs := vo.Normalize(cmd.Specializations)
	props := make(map[string]any, len(cmd.Properties))
	for k, v := range cmd.Properties {
		props[k] = vo.NormalizeTypedValue(cmd.PropertyType[k], v)
	}
	parts := relationValue(cmd.Properties[vo.PropertyParts])
	wholes := relationValue(cmd.Properties[vo.PropertyIsPartOf])
	props[vo.PropertyParts] = parts
	props[vo.PropertyIsPartOf] = wholes

	var seeds []string
	seeds = append(seeds, gens.IDs()...)
	seeds = append(seeds, specs.IDs()...)
	seeds = append(seeds, parts.IDs()...)
	seeds = append(seeds, wholes.IDs()...)

	op := services.Operation{Name: "CreateNode", Actor: cmd.Uname, Reasoning: cmd.Reasoning, Seeds: seeds}
	_, err := h.mutator.Execute(ctx, op, func(s *services.Session) error {
		if err := s.RequireLive(seeds); err != nil {
			return err
		}
		parent, err := s.Node(gens.First())
		if err != nil {
			return err
		}
		for _, spec := range specs.IDs() {
			for _, gen := range gens.IDs() {
				if validators.WouldCreateCircularReference(s, spec, gen) {
					return pkgerrors.CircularReference("Adding specialization '" + spec + "' would create a circular reference")
				}
			}
		}
		for _, whole := range wholes.IDs() {
			if err := validators.CheckParts(s, whole, parts.IDs()); err != nil {
				return err
			}
		}

		n := &entities.Node{
			ID:              cmd.NodeID,
			Title:           strings.TrimSpace(cmd.Title),
			NodeType:        vo.NodeType(cmd.NodeType),
			PropertyType:    map[string]string{},
			TextValue:       map[string]string{},
			Generalizations: gens,
			Specializations: specs,
			Root:            cmd.Root,
			AppName:         cmd.AppName,
			CreatedBy:       cmd.Uname,
			CreatedAt:       s.Now(),
		}
		for k, v := range parent.PropertyType {
			n.PropertyType[k] = v
		}
		for k, v := range cmd.PropertyType {
			n.PropertyType[k] = v
		}
		for k, v := range cmd.TextValue {
			n.TextValue[k] = v
		}

		rules := inheritance.GenerateInheritance(parent)
		for k, v := range props {
			if k == vo.PropertyIsPartOf {
				continue
			}
			if pv, ok := parent.Properties[k]; !ok || !vo.ValuesEqual(pv, v) {
				rules[k] = rules.Rule(k).WithRef("")
			}
		}
		n.Inheritance = rules
		n.Properties = inheritance.InheritProperties(parent, props, rules)
		n.Properties[vo.PropertyParts] = parts
		n.Properties[vo.PropertyIsPartOf] = wholes
		syncCount(n)
		if err := validators.ValidateNoDuplicateNodeIDs(n); err != nil {
			return err
		}
		s.Graph.Insert(n)

		for _, id := range gens.IDs() {
			gen, err := s.Node(id)
			if err != nil {
				return err
			}
			mirror(s, gen, entities.RelationSpecializations, n.ID)
		}
		for _, id := range parts.IDs() {
			part, err := s.Node(id)
			if err != nil {
				return err
			}
			mirror(s, part, entities.RelationIsPartOf, n.ID)
		}
		for _, id := range wholes.IDs() {
			whole, err := s.Node(id)
			if err != nil {
				return err
			}
			mirror(s, whole, entities.RelationParts, n.ID)
		}
		for _, id := range specs.IDs() {
			spec, err := s.Node(id)
			if err != nil {
				return err
			}
			mirror(s, spec, entities.RelationGeneralizations, n.ID)
			if err := inheritance.LinkGeneralizations(s.Graph, id, []string{n.ID}); err != nil {
				return engineError(err)
			}
		}

		s.Log(n, changelog.Entry{ChangeType: changelog.ChangeAddNode, NewValue: n.Title})
		s.Emit(events.NewNodeCreated(n.ID, n.Title, string(n.NodeType), parent.ID, s.Actor(), s.Now()))
		s.Index(n.ID)
		return nil
	})
	if err != nil {
		return err
	}

	h.logger.Info("Node created",
		zap.String("nodeID", cmd.NodeID),
		zap.String("parentID", gens.First()),
		zap.String("uname", cmd.Uname),
	)
	return nil
}

// CloneNode creates a specialization of ParentID that starts as a copy of it.
func (h *NodeHandler) CloneNode(ctx context.Context, cmd commands.CloneNodeCommand) error {
	op := services.Operation{Name: "CloneNode", Actor: cmd.Uname, Reasoning: cmd.Reasoning, Seeds: []string{cmd.ParentID}}
	_, err := h.mutator.Execute(ctx, op, func(s *services.Session) error {
		parent, err := s.Node(cmd.ParentID)
		if err != nil {
			return err
		}
		if parent.Deleted {
			return pkgerrors.NodeAlreadyDeleted(parent.ID)
		}

		n := parent.Clone()
		n.ID = cmd.NodeID
		n.Title = "New " + parent.Title
		n.Contributors = []string{}
		n.ContributorsByProperty = map[string][]string{}
		n.TextValue = map[string]string{}
		n.Generalizations = vo.NewCollections(parent.ID)
		n.Specializations = vo.NewCollections()
		n.NumberOfGeneralizations = parent.NumberOfGeneralizations + 1
		n.PropertyOf = map[string]vo.Collections{}
		n.Locked = false
		n.Root = ""
		n.CreatedBy = cmd.Uname
		n.CreatedAt = s.Now()
		n.Inheritance = inheritance.GenerateInheritance(parent)
		n.RemoveProperty(vo.PropertyONetID)
		n.Properties[vo.PropertyIsPartOf] = vo.NewCollections()
		s.Graph.Insert(n)

		mirror(s, parent, entities.RelationSpecializations, n.ID)

		s.Log(n, changelog.Entry{ChangeType: changelog.ChangeAddNode, NewValue: n.Title})
		s.Emit(events.NewNodeCreated(n.ID, n.Title, string(n.NodeType), parent.ID, s.Actor(), s.Now()))
		s.Index(n.ID)
		return nil
	})
	if err != nil {
		return err
	}

	h.logger.Info("Node cloned", zap.String("nodeID", cmd.NodeID), zap.String("parentID", cmd.ParentID))
	return nil
}

// UpdateNode applies a partial update of title, relations and property values.
func (h *NodeHandler) UpdateNode(ctx context.Context, cmd commands.UpdateNodeCommand) error {
	seeds := []string{cmd.NodeID}
	seeds = append(seeds, cmd.Generalizations.IDs()...)
	seeds = append(seeds, cmd.Specializations.IDs()...)
	for _, rel := range []string{vo.PropertyParts, vo.PropertyIsPartOf} {
		if v, ok := cmd.Properties[rel]; ok {
			seeds = append(seeds, relationValue(v).IDs()...)
		}
	}

	op := services.Operation{Name: "UpdateNode", Actor: cmd.Uname, Reasoning: cmd.Reasoning, Seeds: seeds}
	_, err := h.mutator.Execute(ctx, op, func(s *services.Session) error {
		n, err := s.Editable(cmd.NodeID)
		if err != nil {
			return err
		}
		var changed []string

		if cmd.Title != nil {
			title := strings.TrimSpace(*cmd.Title)
			if title != n.Title {
				prev := n.Title
				n.Title = title
				s.Log(n, changelog.Entry{ChangeType: changelog.ChangeText, ModifiedProperty: "title", PreviousValue: prev, NewValue: title})
				changed = append(changed, "title")
			}
		}

		gens := n.Generalizations
		if cmd.Generalizations != nil {
			gens = vo.Normalize(cmd.Generalizations)
		}
		specs := n.Specializations
		if cmd.Specializations != nil {
			specs = vo.Normalize(cmd.Specializations)
		}
		if err := validators.CheckCircularReferences(gens.IDs(), specs.IDs()); err != nil {
			return err
		}

		if cmd.Generalizations != nil {
			ok, err := h.replaceGeneralizations(s, n, gens)
			if err != nil {
				return err
			}
			if ok {
				changed = append(changed, string(entities.RelationGeneralizations))
			}
		}
		if cmd.Specializations != nil {
			ok, err := h.replaceSpecializations(s, n, specs)
			if err != nil {
				return err
			}
			if ok {
				changed = append(changed, string(entities.RelationSpecializations))
			}
		}

		props, err := h.updateProperties(s, n, cmd.Properties)
		if err != nil {
			return err
		}
		changed = append(changed, props...)

		if len(changed) == 0 {
			return nil
		}
		if err := validators.ValidateNoDuplicateNodeIDs(n); err != nil {
			return err
		}
		s.Emit(events.NewNodeUpdated(n.ID, changed, s.Actor(), s.Now()))
		s.Index(n.ID)
		return nil
	})
	if err != nil {
		return err
	}

	h.logger.Info("Node updated", zap.String("nodeID", cmd.NodeID), zap.String("uname", cmd.Uname))
	return nil
}

func (h *NodeHandler) replaceGeneralizations(s *services.Session, n *entities.Node, gens vo.Collections) (bool, error) {
	before := n.Generalizations.Clone()
	added, removed := diffIDs(before.IDs(), gens.IDs())
	if len(added) == 0 && len(removed) == 0 && vo.ValuesEqual(before, gens) {
		return false, nil
	}
	if err := s.RequireLive(added); err != nil {
		return false, err
	}
	if err := validators.CheckGeneralizations(s, n.ID, added); err != nil {
		return false, err
	}

	prevFirst := n.FirstGeneralization()
	n.Generalizations = gens
	syncCount(n)
	s.Touch(n)
	for _, id := range added {
		gen, err := s.Node(id)
		if err != nil {
			return false, err
		}
		mirror(s, gen, entities.RelationSpecializations, n.ID)
	}
	for _, id := range removed {
		gen, err := linked(s, id)
		if err != nil {
			return false, err
		}
		if gen != nil {
			unmirror(s, gen, entities.RelationSpecializations, n.ID)
		}
	}

	if len(added) > 0 {
		if err := inheritance.LinkGeneralizations(s.Graph, n.ID, added); err != nil {
			return false, engineError(err)
		}
	}
	for _, id := range removed {
		if err := inheritance.UnlinkGeneralization(s.Graph, n.ID, id); err != nil {
			return false, engineError(err)
		}
	}
	if err := settle(s, n, entities.RelationGeneralizations, prevFirst); err != nil {
		return false, engineError(err)
	}
	s.PropagatedFrom(n.ID)

	s.Log(n, changelog.Entry{
		ChangeType:       changelog.ChangeModifyElements,
		ModifiedProperty: string(entities.RelationGeneralizations),
		PreviousValue:    before,
		NewValue:         n.Generalizations.Clone(),
	})
	s.Emit(events.NewNodeLinksChanged(n.ID, string(entities.RelationGeneralizations), added, removed, s.Actor(), s.Now()))
	return true, nil
}

func (h *NodeHandler) replaceSpecializations(s *services.Session, n *entities.Node, specs vo.Collections) (bool, error) {
	before := n.Specializations.Clone()
	added, removed := diffIDs(before.IDs(), specs.IDs())
	if len(added) == 0 && len(removed) == 0 && vo.ValuesEqual(before, specs) {
		return false, nil
	}
	if err := s.RequireLive(added); err != nil {
		return false, err
	}
	if err := validators.CheckSpecializations(s, n.ID, added); err != nil {
		return false, err
	}
	for _, id := range removed {
		spec, err := linked(s, id)
		if err != nil {
			return false, err
		}
		if spec == nil {
			continue
		}
		if err := validators.ValidateGeneralizationRemoval(spec, []string{n.ID}); err != nil {
			return false, err
		}
	}

	n.Specializations = specs
	s.Touch(n)
	for _, id := range added {
		spec, err := s.Node(id)
		if err != nil {
			return false, err
		}
		mirror(s, spec, entities.RelationGeneralizations, n.ID)
	}
	var unlinked []string
	for _, id := range removed {
		spec, err := linked(s, id)
		if err != nil {
			return false, err
		}
		if spec != nil {
			unmirror(s, spec, entities.RelationGeneralizations, n.ID)
			unlinked = append(unlinked, id)
		}
	}
	if err := inheritance.LinkSpecializations(s.Graph, n.ID, added, unlinked); err != nil {
		return false, engineError(err)
	}
	s.PropagatedFrom(n.ID)

	s.Log(n, changelog.Entry{
		ChangeType:       changelog.ChangeModifyElements,
		ModifiedProperty: string(entities.RelationSpecializations),
		PreviousValue:    before,
		NewValue:         n.Specializations.Clone(),
	})
	s.Emit(events.NewNodeLinksChanged(n.ID, string(entities.RelationSpecializations), added, removed, s.Actor(), s.Now()))
	return true, nil
}

// updateProperties writes changed values, relinks parts and wholes, and
// hands the result down to specializations.
func (h *NodeHandler) updateProperties(s *services.Session, n *entities.Node, values map[string]any) ([]string, error) {
	var change inheritance.Change
	var changed []string

	for _, name := range slices.Sorted(maps.Keys(values)) {
		if vo.IsCoreProperty(name) {
			rel := entities.Relation(name)
			ok, err := h.replaceRelation(s, n, rel, relationValue(values[name]))
			if err != nil {
				return nil, err
			}
			if ok {
				change.Updated = append(change.Updated, name)
				changed = append(changed, name)
			}
			continue
		}

		prev, exists := n.Properties[name]
		propertyType := n.PropertyType[name]
		value := vo.NormalizeTypedValue(propertyType, values[name])
		if exists && vo.ValuesEqual(prev, value) {
			continue
		}
		if propertyType == "" {
			propertyType = vo.InferType(value)
		}
		if err := vo.CheckType(propertyType, value); err != nil {
			return nil, pkgerrors.Validation("%s", err.Error()).WithDetail("property", name)
		}

		if exists {
			n.Properties[name] = value
			change.Updated = append(change.Updated, name)
		} else {
			n.SetProperty(name, value, propertyType, vo.NewInheritanceRule("", vo.DefaultInheritanceType))
			change.Added = append(change.Added, inheritance.Addition{Name: name, Type: propertyType, Value: value})
		}
		changeType := changelog.ChangeText
		if _, ok := value.(string); !ok {
			changeType = changelog.ChangeModifyElements
		}
		s.Log(n, changelog.Entry{ChangeType: changeType, ModifiedProperty: name, PreviousValue: prev, NewValue: value})
		changed = append(changed, name)
	}

	if change.IsEmpty() {
		return changed, nil
	}
	s.PropagatedFrom(n.ID)
	if err := inheritance.Propagate(s.Graph, n.ID, change); err != nil {
		return nil, engineError(err)
	}
	return changed, nil
}

// replaceRelation sets parts or isPartOf of n and mirrors the difference.
func (h *NodeHandler) replaceRelation(s *services.Session, n *entities.Node, rel entities.Relation, cs vo.Collections) (bool, error) {
	before := n.Relation(rel)
	if vo.ValuesEqual(before, cs) {
		return false, nil
	}
	added, removed := diffIDs(before.IDs(), cs.IDs())
	if err := s.RequireLive(added); err != nil {
		return false, err
	}
	switch rel {
	case entities.RelationParts:
		if err := validators.CheckParts(s, n.ID, added); err != nil {
			return false, err
		}
	case entities.RelationIsPartOf:
		for _, id := range added {
			if err := validators.CheckParts(s, id, []string{n.ID}); err != nil {
				return false, err
			}
		}
	}

	n.SetRelation(rel, cs)
	n.Inheritance[string(rel)] = n.Inheritance.Rule(string(rel)).WithRef("")
	s.Touch(n)
	for _, id := range added {
		other, err := s.Node(id)
		if err != nil {
			return false, err
		}
		mirror(s, other, rel.Inverse(), n.ID)
	}
	for _, id := range removed {
		other, err := linked(s, id)
		if err != nil {
			return false, err
		}
		if other != nil {
			unmirror(s, other, rel.Inverse(), n.ID)
		}
	}

	s.Log(n, changelog.Entry{
		ChangeType:       changelog.ChangeModifyElements,
		ModifiedProperty: string(rel),
		PreviousValue:    before,
		NewValue:         cs.Clone(),
	})
	s.Emit(events.NewNodeLinksChanged(n.ID, string(rel), added, removed, s.Actor(), s.Now()))
	return true, nil
}

// DeleteNode soft deletes a node and removes every link pointing at it.
func (h *NodeHandler) DeleteNode(ctx context.Context, cmd commands.DeleteNodeCommand) error {
	op := services.Operation{Name: "DeleteNode", Actor: cmd.Uname, Reasoning: cmd.Reasoning, Seeds: []string{cmd.NodeID}}
	_, err := h.mutator.Execute(ctx, op, func(s *services.Session) error {
		n, err := s.Node(cmd.NodeID)
		if err != nil {
			return err
		}
		if err := validators.CheckDeletable(s, n); err != nil {
			return err
		}
		if err := n.EnsureEditable(); err != nil {
			return err
		}

		detach := func(id string, rel entities.Relation) error {
			other, err := linked(s, id)
			if err != nil || other == nil {
				return err
			}
			before := other.Relation(rel)
			if !before.Contains(n.ID) {
				return nil
			}
			unmirror(s, other, rel, n.ID)
			s.Log(other, changelog.Entry{
				ChangeType:       changelog.ChangeRemoveElement,
				ModifiedProperty: string(rel),
				PreviousValue:    before,
				NewValue:         other.Relation(rel),
			})
			return nil
		}

		for _, id := range n.Generalizations.IDs() {
			if err := detach(id, entities.RelationSpecializations); err != nil {
				return err
			}
		}
		for _, id := range n.Relation(entities.RelationIsPartOf).IDs() {
			if err := detach(id, entities.RelationParts); err != nil {
				return err
			}
		}
		for _, id := range n.Relation(entities.RelationParts).IDs() {
			if err := detach(id, entities.RelationIsPartOf); err != nil {
				return err
			}
		}
		for _, id := range n.Specializations.IDs() {
			if err := detach(id, entities.RelationGeneralizations); err != nil {
				return err
			}
			if spec, _ := linked(s, id); spec != nil {
				if err := inheritance.UnlinkGeneralization(s.Graph, id, n.ID); err != nil {
					return engineError(err)
				}
			}
		}
		for _, property := range slices.Sorted(maps.Keys(n.PropertyOf)) {
			for _, id := range n.PropertyOf[property].IDs() {
				if err := h.detachFromProperty(s, n.ID, id, property); err != nil {
					return err
				}
			}
		}

		if err := n.MarkDeleted(cmd.Uname); err != nil {
			return err
		}
		s.Touch(n)
		for _, ev := range n.GetUncommittedEvents() {
			s.Emit(ev)
		}
		n.MarkEventsAsCommitted()
		s.Log(n, changelog.Entry{ChangeType: changelog.ChangeDeleteNode, PreviousValue: n.Title})
		s.Index(n.ID)
		return nil
	})
	if err != nil {
		return err
	}

	h.logger.Info("Node deleted", zap.String("nodeID", cmd.NodeID), zap.String("uname", cmd.Uname))
	return nil
}

// detachFromProperty removes nodeID from the link-valued property of ownerID.
func (h *NodeHandler) detachFromProperty(s *services.Session, nodeID, ownerID, property string) error {
	owner, err := linked(s, ownerID)
	if err != nil || owner == nil {
		return err
	}
	before, ok := vo.AsCollections(owner.Properties[property])
	if !ok || !before.Contains(nodeID) {
		return nil
	}
	after := before.Clone()
	after.Remove(nodeID)
	owner.Properties[property] = after
	s.Log(owner, changelog.Entry{
		ChangeType:       changelog.ChangeRemoveElement,
		ModifiedProperty: property,
		PreviousValue:    before,
		NewValue:         after,
	})
	return nil
}
