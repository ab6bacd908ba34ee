package handlers

import (
	"context"

	"go.uber.org/zap"

	"ontology-backend/application/commands"
	"ontology-backend/application/services"
)

// SearchHandler handles on-demand search index refreshes
type SearchHandler struct {
	indexer *services.SearchIndexService
	logger  *zap.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(indexer *services.SearchIndexService, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{indexer: indexer, logger: logger}
}

// TriggerSearchIndex rebuilds or removes the search document of a node.
func (h *SearchHandler) TriggerSearchIndex(ctx context.Context, cmd commands.TriggerSearchIndexCommand) error {
	if err := h.indexer.Trigger(ctx, cmd.NodeID, cmd.Update, cmd.Deleted); err != nil {
		h.logger.Error("Search index trigger failed", zap.String("nodeID", cmd.NodeID), zap.Error(err))
		return err
	}
	return nil
}
