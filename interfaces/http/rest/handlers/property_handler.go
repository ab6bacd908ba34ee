package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ontology-backend/application/commands"
	"ontology-backend/application/queries"
	"ontology-backend/domain/config"
)

// PropertyHandler serves node properties and their inheritance rules.
type PropertyHandler struct {
	base
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(cmds CommandSender, qs QueryAsker, errs ErrorResponder, cfg *config.DomainConfig, logger *zap.Logger) *PropertyHandler {
	return &PropertyHandler{base{commands: cmds, queries: qs, errs: errs, cfg: cfg, logger: logger}}
}

func propertyName(r *http.Request) string {
	return chi.URLParam(r, "name")
}

// GetProperties handles GET /api/nodes/{id}/properties
func (h *PropertyHandler) GetProperties(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetPropertiesQuery{NodeID: nodeID(r)})
}

// GetProperty handles GET /api/nodes/{id}/properties/{name}
func (h *PropertyHandler) GetProperty(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetPropertyQuery{NodeID: nodeID(r), PropertyName: propertyName(r)})
}

// AddProperty handles POST /api/nodes/{id}/properties
func (h *PropertyHandler) AddProperty(w http.ResponseWriter, r *http.Request) {
	var cmd commands.AddPropertyCommand
	if err := decode(r, &cmd); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	cmd.NodeID = nodeID(r)
	cmd.Uname = uname(r)
	h.send(w, r, http.StatusCreated, cmd, done(cmd.NodeID, "Property added successfully"))
}

// UpdateProperties handles PATCH /api/nodes/{id}/properties
func (h *PropertyHandler) UpdateProperties(w http.ResponseWriter, r *http.Request) {
	var cmd commands.UpdatePropertiesCommand
	if err := decode(r, &cmd); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	cmd.NodeID = nodeID(r)
	cmd.Uname = uname(r)
	h.send(w, r, http.StatusOK, cmd, done(cmd.NodeID, "Properties updated successfully"))
}

// DeleteProperty handles DELETE /api/nodes/{id}/properties/{name}
func (h *PropertyHandler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	var cmd commands.DeletePropertyCommand
	if err := decode(r, &cmd); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if reasoning := r.URL.Query().Get("reasoning"); reasoning != "" {
		cmd.Reasoning = reasoning
	}
	cmd.NodeID = nodeID(r)
	cmd.PropertyName = propertyName(r)
	cmd.Uname = uname(r)
	h.send(w, r, http.StatusOK, cmd, done(cmd.NodeID, "Property deleted successfully"))
}

// RenameProperty handles PUT /api/nodes/{id}/properties/{name}
func (h *PropertyHandler) RenameProperty(w http.ResponseWriter, r *http.Request) {
	var cmd commands.RenamePropertyCommand
	if err := decode(r, &cmd); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	cmd.NodeID = nodeID(r)
	cmd.PropertyName = propertyName(r)
	cmd.Uname = uname(r)
	h.send(w, r, http.StatusOK, cmd, done(cmd.NodeID, "Property renamed successfully"))
}

// GetPropertyInheritance handles GET /api/nodes/{id}/properties/{name}/inheritance
func (h *PropertyHandler) GetPropertyInheritance(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetPropertyInheritanceQuery{NodeID: nodeID(r), PropertyName: propertyName(r)})
}

// UpdatePropertyInheritance handles PATCH /api/nodes/{id}/properties/{name}/inheritance
func (h *PropertyHandler) UpdatePropertyInheritance(w http.ResponseWriter, r *http.Request) {
	var cmd commands.UpdatePropertyInheritanceCommand
	if err := decode(r, &cmd); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	cmd.NodeID = nodeID(r)
	cmd.PropertyName = propertyName(r)
	cmd.Uname = uname(r)
	h.send(w, r, http.StatusOK, cmd, done(cmd.NodeID, "Inheritance updated successfully"))
}

// GetInheritance handles GET /api/nodes/{id}/inheritance
func (h *PropertyHandler) GetInheritance(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetInheritanceQuery{NodeID: nodeID(r)})
}

// UpdateInheritance handles PATCH /api/nodes/{id}/inheritance
func (h *PropertyHandler) UpdateInheritance(w http.ResponseWriter, r *http.Request) {
	var cmd commands.UpdateInheritanceCommand
	if err := decode(r, &cmd); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	cmd.NodeID = nodeID(r)
	cmd.Uname = uname(r)
	h.send(w, r, http.StatusOK, cmd, done(cmd.NodeID, "Inheritance updated successfully"))
}

// RegenerateInheritance handles POST /api/nodes/{id}/inheritance/regenerate
func (h *PropertyHandler) RegenerateInheritance(w http.ResponseWriter, r *http.Request) {
	var cmd commands.RegenerateInheritanceCommand
	if err := decode(r, &cmd); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	cmd.NodeID = nodeID(r)
	cmd.Uname = uname(r)
	h.send(w, r, http.StatusOK, cmd, done(cmd.NodeID, "Inheritance regenerated successfully"))
}
