package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ontology-backend/application/commands"
	"ontology-backend/application/queries"
	"ontology-backend/application/services"
	"ontology-backend/domain/config"
	"ontology-backend/pkg/common"
	pkgerrors "ontology-backend/pkg/errors"
)

// NodeHandler handles node-related HTTP requests
type NodeHandler struct {
	base
	newID func() string
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(cmds CommandSender, qs QueryAsker, errs ErrorResponder, cfg *config.DomainConfig, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{
		base:  base{commands: cmds, queries: qs, errs: errs, cfg: cfg, logger: logger},
		newID: func() string { return uuid.New().String() },
	}
}

// CreateNode handles POST /api/nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateNodeCommand
	if err := decode(r, &cmd); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	cmd.NodeID = h.newID()
	cmd.Uname = uname(r)

	h.send(w, r, http.StatusCreated, cmd, done(cmd.NodeID, "Node created successfully"))
}

// CloneNode handles POST /api/nodes/{id}/clone
func (h *NodeHandler) CloneNode(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CloneNodeCommand
	if err := decode(r, &cmd); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	cmd.ParentID = nodeID(r)
	cmd.NodeID = h.newID()
	cmd.Uname = uname(r)

	h.send(w, r, http.StatusCreated, cmd, done(cmd.NodeID, "Node cloned successfully"))
}

// GetNode handles GET /api/nodes/{id}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetNodeQuery{NodeID: nodeID(r)})
}

// ListNodes handles GET /api/nodes/list
func (h *NodeHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := common.ExtractLimitOffset(r, h.cfg.DefaultListLimit, h.cfg.MaxListLimit)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	q := queries.ListNodesQuery{
		NodeType: r.URL.Query().Get("nodeType"),
		Root:     r.URL.Query().Get("root"),
		Limit:    limit,
		Offset:   offset,
	}
	if raw := r.URL.Query().Get("deleted"); raw != "" {
		deleted, err := strconv.ParseBool(raw)
		if err != nil {
			h.errs.Handle(w, r, pkgerrors.Validation("deleted must be true or false"))
			return
		}
		q.Deleted = deleted
	}

	result, err := h.queries.Ask(r.Context(), q)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	list := result.(*queries.ListNodesResult)
	meta := common.NewMetadata(r).WithPage(common.Page{
		Total:  list.Metadata.Total,
		Offset: list.Metadata.Offset,
		Limit:  list.Metadata.Limit,
	})
	common.RespondWithMeta(w, http.StatusOK, list.Nodes, meta)
}

// ExportOntology handles GET /api/ontology/export?appName=
func (h *NodeHandler) ExportOntology(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.ExportOntologyQuery{AppName: r.URL.Query().Get("appName")})
}

// UpdateNode handles PATCH /api/nodes/{id}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	var cmd commands.UpdateNodeCommand
	if err := decode(r, &cmd); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	cmd.NodeID = nodeID(r)
	cmd.Uname = uname(r)

	h.send(w, r, http.StatusOK, cmd, done(cmd.NodeID, "Node updated successfully"))
}

// DeleteNode handles DELETE /api/nodes/{id}?reasoning=
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	var cmd commands.DeleteNodeCommand
	if err := decode(r, &cmd); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	if reasoning := r.URL.Query().Get("reasoning"); reasoning != "" {
		cmd.Reasoning = reasoning
	}
	cmd.NodeID = nodeID(r)
	cmd.Uname = uname(r)

	h.send(w, r, http.StatusOK, cmd, done(cmd.NodeID, "Node deleted successfully"))
}

// GetChanges handles GET /api/nodes/{id}/changes
func (h *NodeHandler) GetChanges(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := common.ExtractLimitOffset(r, h.cfg.DefaultChangesLimit, h.cfg.MaxChangesLimit)
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	result, err := h.queries.Ask(r.Context(), queries.GetChangesQuery{NodeID: nodeID(r), Limit: limit, Offset: offset})
	if err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	page := result.(*services.ChangeLogPage)
	meta := common.NewMetadata(r).WithPage(common.Page{Total: page.Total, Offset: page.Offset, Limit: page.Limit})
	common.RespondWithMeta(w, http.StatusOK, page.Changes, meta)
}
