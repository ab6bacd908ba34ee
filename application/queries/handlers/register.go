package handlers

import (
	"errors"

	"ontology-backend/application/queries"
	"ontology-backend/application/queries/bus"
)

// Handlers groups every query handler.
type Handlers struct {
	Nodes   *NodeQueryHandler
	Changes *ChangesQueryHandler
}

// Register binds each query type to its handler.
func (h *Handlers) Register(b *bus.QueryBus) error {
	return errors.Join(
		b.Register(queries.GetNodeQuery{}, bus.Handle(h.Nodes.GetNode)),
		b.Register(queries.ListNodesQuery{}, bus.Handle(h.Nodes.ListNodes)),
		b.Register(queries.GetRelationQuery{}, bus.Handle(h.Nodes.GetRelation)),
		b.Register(queries.GetCollectionsQuery{}, bus.Handle(h.Nodes.GetCollections)),
		b.Register(queries.GetPropertiesQuery{}, bus.Handle(h.Nodes.GetProperties)),
		b.Register(queries.GetPropertyQuery{}, bus.Handle(h.Nodes.GetProperty)),
		b.Register(queries.GetInheritanceQuery{}, bus.Handle(h.Nodes.GetInheritance)),
		b.Register(queries.GetPropertyInheritanceQuery{}, bus.Handle(h.Nodes.GetPropertyInheritance)),
		b.Register(queries.ExportOntologyQuery{}, bus.Handle(h.Nodes.ExportOntology)),
		b.Register(queries.GetChangesQuery{}, bus.Handle(h.Changes.GetChanges)),
	)
}
