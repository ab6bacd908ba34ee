package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"ontology-backend/application/commands"
)

// SearchHandler serves the on-demand search index trigger.
type SearchHandler struct {
	base
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(cmds CommandSender, errs ErrorResponder, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{base{commands: cmds, errs: errs, logger: logger}}
}

// Trigger handles POST /triggerChroma
func (h *SearchHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var cmd commands.TriggerSearchIndexCommand
	if err := decode(r, &cmd); err != nil {
		h.errs.Handle(w, r, err)
		return
	}
	h.send(w, r, http.StatusOK, cmd, done(cmd.NodeID, "Search index updated"))
}
