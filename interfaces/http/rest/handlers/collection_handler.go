package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ontology-backend/application/commands"
	"ontology-backend/application/queries"
	"ontology-backend/domain/config"
)

// CollectionHandler serves /api/nodes/{id}/collections/{relationType}.
type CollectionHandler struct {
	base
}

// NewCollectionHandler creates a new collection handler
func NewCollectionHandler(cmds CommandSender, qs QueryAsker, errs ErrorResponder, cfg *config.DomainConfig, logger *zap.Logger) *CollectionHandler {
	return &CollectionHandler{base{commands: cmds, queries: qs, errs: errs, cfg: cfg, logger: logger}}
}

func relationType(r *http.Request) string {
	return chi.URLParam(r, "relationType")
}

// collectionRequest is the union of the collection request bodies.
type collectionRequest struct {
	Reasoning       string   `json:"reasoning"`
	CollectionName  string   `json:"collectionName"`
	CollectionNames []string `json:"collectionNames"`
	NewName         string   `json:"newName"`
	Order           []string `json:"order"`
}

func (h *CollectionHandler) read(w http.ResponseWriter, r *http.Request) (collectionRequest, commands.Audit, bool) {
	var req collectionRequest
	if err := decode(r, &req); err != nil {
		h.errs.Handle(w, r, err)
		return req, commands.Audit{}, false
	}
	if reasoning := r.URL.Query().Get("reasoning"); req.Reasoning == "" && reasoning != "" {
		req.Reasoning = reasoning
	}
	return req, commands.Audit{Uname: uname(r), Reasoning: req.Reasoning}, true
}

// List handles GET
func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetCollectionsQuery{NodeID: nodeID(r), Relation: relationType(r)})
}

// Create handles POST, creating the single collection collectionName.
func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, audit, ok := h.read(w, r)
	if !ok {
		return
	}
	names := req.CollectionNames
	if req.CollectionName != "" {
		names = []string{req.CollectionName}
	}
	cmd := commands.CreateCollectionsCommand{Audit: audit, NodeID: nodeID(r), Relation: relationType(r), Names: names}
	h.send(w, r, http.StatusCreated, cmd, done(cmd.NodeID, "Collection created successfully"))
}

// Put handles PUT: collectionNames creates several collections at once and
// order sorts the existing ones.
func (h *CollectionHandler) Put(w http.ResponseWriter, r *http.Request) {
	req, audit, ok := h.read(w, r)
	if !ok {
		return
	}
	if len(req.Order) > 0 {
		cmd := commands.SortCollectionsCommand{Audit: audit, NodeID: nodeID(r), Relation: relationType(r), Order: req.Order}
		h.send(w, r, http.StatusOK, cmd, done(cmd.NodeID, "Collections sorted successfully"))
		return
	}
	cmd := commands.CreateCollectionsCommand{Audit: audit, NodeID: nodeID(r), Relation: relationType(r), Names: req.CollectionNames}
	h.send(w, r, http.StatusCreated, cmd, done(cmd.NodeID, "Collections created successfully"))
}

// Delete handles DELETE; the links of the collection move back to main.
func (h *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	req, audit, ok := h.read(w, r)
	if !ok {
		return
	}
	name := req.CollectionName
	if name == "" {
		name = r.URL.Query().Get("collectionName")
	}
	cmd := commands.DeleteCollectionCommand{Audit: audit, NodeID: nodeID(r), Relation: relationType(r), CollectionName: name}
	h.send(w, r, http.StatusOK, cmd, done(cmd.NodeID, "Collection deleted successfully"))
}

// Rename handles PATCH
func (h *CollectionHandler) Rename(w http.ResponseWriter, r *http.Request) {
	req, audit, ok := h.read(w, r)
	if !ok {
		return
	}
	cmd := commands.RenameCollectionCommand{
		Audit:          audit,
		NodeID:         nodeID(r),
		Relation:       relationType(r),
		CollectionName: req.CollectionName,
		NewName:        req.NewName,
	}
	h.send(w, r, http.StatusOK, cmd, done(cmd.NodeID, "Collection renamed successfully"))
}
