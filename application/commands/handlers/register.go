package handlers

import (
	"errors"

	"ontology-backend/application/commands"
	"ontology-backend/application/commands/bus"
)

// Handlers groups every command handler of the service.
type Handlers struct {
	Nodes       *NodeHandler
	Properties  *PropertyHandler
	Inheritance *InheritanceHandler
	Links       *LinkHandler
	Collections *CollectionHandler
	Search      *SearchHandler
}

// Register wires each command type to its handler on b.
func (h *Handlers) Register(b *bus.CommandBus) error {
	return errors.Join(
		b.Register(commands.CreateNodeCommand{}, bus.Handle(h.Nodes.CreateNode)),
		b.Register(commands.CloneNodeCommand{}, bus.Handle(h.Nodes.CloneNode)),
		b.Register(commands.UpdateNodeCommand{}, bus.Handle(h.Nodes.UpdateNode)),
		b.Register(commands.DeleteNodeCommand{}, bus.Handle(h.Nodes.DeleteNode)),

		b.Register(commands.AddPropertyCommand{}, bus.Handle(h.Properties.AddProperty)),
		b.Register(commands.UpdatePropertiesCommand{}, bus.Handle(h.Properties.UpdateProperties)),
		b.Register(commands.DeletePropertyCommand{}, bus.Handle(h.Properties.DeleteProperty)),
		b.Register(commands.RenamePropertyCommand{}, bus.Handle(h.Properties.RenameProperty)),

		b.Register(commands.UpdateInheritanceCommand{}, bus.Handle(h.Inheritance.UpdateInheritance)),
		b.Register(commands.UpdatePropertyInheritanceCommand{}, bus.Handle(h.Inheritance.UpdatePropertyInheritance)),
		b.Register(commands.RegenerateInheritanceCommand{}, bus.Handle(h.Inheritance.RegenerateInheritance)),

		b.Register(commands.AddLinksCommand{}, bus.Handle(h.Links.AddLinks)),
		b.Register(commands.RemoveLinksCommand{}, bus.Handle(h.Links.RemoveLinks)),
		b.Register(commands.MoveLinksCommand{}, bus.Handle(h.Links.MoveLinks)),
		b.Register(commands.ReorderLinksCommand{}, bus.Handle(h.Links.ReorderLinks)),
		b.Register(commands.TransferSpecializationsCommand{}, bus.Handle(h.Links.TransferSpecializations)),

		b.Register(commands.CreateCollectionsCommand{}, bus.Handle(h.Collections.CreateCollections)),
		b.Register(commands.DeleteCollectionCommand{}, bus.Handle(h.Collections.DeleteCollection)),
		b.Register(commands.RenameCollectionCommand{}, bus.Handle(h.Collections.RenameCollection)),
		b.Register(commands.SortCollectionsCommand{}, bus.Handle(h.Collections.SortCollections)),

		b.Register(commands.TriggerSearchIndexCommand{}, bus.Handle(h.Search.TriggerSearchIndex)),
	)
}
