package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"ontology-backend/application/commands"
	"ontology-backend/application/queries"
	"ontology-backend/domain/config"
	"ontology-backend/domain/core/entities"
	vo "ontology-backend/domain/core/valueobjects"
)

// LinkHandler serves the four relations of a node. Each method returns the
// handler bound to one relation.
type LinkHandler struct {
	base
}

// NewLinkHandler creates a new link handler
func NewLinkHandler(cmds CommandSender, qs QueryAsker, errs ErrorResponder, cfg *config.DomainConfig, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{base{commands: cmds, queries: qs, errs: errs, cfg: cfg, logger: logger}}
}

// List handles GET /api/nodes/{id}/{relation}
func (h *LinkHandler) List(rel entities.Relation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.ask(w, r, queries.GetRelationQuery{NodeID: nodeID(r), Relation: string(rel)})
	}
}

// Add handles POST /api/nodes/{id}/{relation}
func (h *LinkHandler) Add(rel entities.Relation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cmd commands.AddLinksCommand
		if err := decode(r, &cmd); err != nil {
			h.errs.Handle(w, r, err)
			return
		}
		cmd.NodeID, cmd.Relation, cmd.Uname = nodeID(r), string(rel), uname(r)
		h.send(w, r, http.StatusOK, cmd, done(cmd.NodeID, "Links added successfully"))
	}
}

// Remove handles DELETE /api/nodes/{id}/{relation}
func (h *LinkHandler) Remove(rel entities.Relation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cmd commands.RemoveLinksCommand
		if err := decode(r, &cmd); err != nil {
			h.errs.Handle(w, r, err)
			return
		}
		cmd.NodeID, cmd.Relation, cmd.Uname = nodeID(r), string(rel), uname(r)
		h.send(w, r, http.StatusOK, cmd, done(cmd.NodeID, "Links removed successfully"))
	}
}

// rearrangeRequest is the union of the move and reorder bodies.
type rearrangeRequest struct {
	Reasoning        string    `json:"reasoning"`
	Nodes            []vo.Link `json:"nodes"`
	NewIndices       []int     `json:"newIndices"`
	CollectionName   string    `json:"collectionName"`
	SourceCollection string    `json:"sourceCollection"`
	TargetCollection string    `json:"targetCollection"`
}

// Rearrange handles PUT /api/nodes/{id}/{relation}. A body with newIndices
// reorders links; one with source and target collections moves them.
func (h *LinkHandler) Rearrange(rel entities.Relation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rearrangeRequest
		if err := decode(r, &req); err != nil {
			h.errs.Handle(w, r, err)
			return
		}
		audit := commands.Audit{Uname: uname(r), Reasoning: req.Reasoning}

		if req.NewIndices == nil && (req.SourceCollection != "" || req.TargetCollection != "") {
			cmd := commands.MoveLinksCommand{
				Audit:            audit,
				NodeID:           nodeID(r),
				Relation:         string(rel),
				Nodes:            req.Nodes,
				SourceCollection: req.SourceCollection,
				TargetCollection: req.TargetCollection,
			}
			h.send(w, r, http.StatusOK, cmd, done(cmd.NodeID, "Links moved successfully"))
			return
		}

		cmd := commands.ReorderLinksCommand{
			Audit:          audit,
			NodeID:         nodeID(r),
			Relation:       string(rel),
			Nodes:          req.Nodes,
			NewIndices:     req.NewIndices,
			CollectionName: req.CollectionName,
		}
		h.send(w, r, http.StatusOK, cmd, done(cmd.NodeID, "Links reordered successfully"))
	}
}

// TransferSpecializations handles POST /api/nodes/{id}/specializations/transfer
func (h *LinkHandler) TransferSpecializations(w http.ResponseWriter, r *http.Request) {
	var cmd commands.TransferSpecializationsCommand
	if err := decode(r, &cmd); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	cmd.NodeID = nodeID(r)
	cmd.Uname = uname(r)
	h.send(w, r, http.StatusOK, cmd, done(cmd.NodeID, "Specializations transferred successfully"))
}
