package handlers

import (
	"context"

	"go.uber.org/zap"

	"ontology-backend/application/queries"
	"ontology-backend/application/services"
)

// ChangesQueryHandler serves node change logs
type ChangesQueryHandler struct {
	changes *services.ChangeLogService
	logger  *zap.Logger
}

// NewChangesQueryHandler creates a new change log query handler
func NewChangesQueryHandler(changes *services.ChangeLogService, logger *zap.Logger) *ChangesQueryHandler {
	return &ChangesQueryHandler{changes: changes, logger: logger}
}

// GetChanges returns one page of the change log, newest first.
func (h *ChangesQueryHandler) GetChanges(ctx context.Context, q queries.GetChangesQuery) (*services.ChangeLogPage, error) {
	page, err := h.changes.GetNodeChangeLogs(ctx, q.NodeID, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	h.logger.Debug("Change log read",
		zap.String("nodeID", q.NodeID),
		zap.Int("count", len(page.Changes)),
		zap.Int("total", page.Total),
	)
	return page, nil
}
