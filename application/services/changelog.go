package services

import (
	"context"

	"ontology-backend/application/ports"
	"ontology-backend/domain/changelog"
	"ontology-backend/domain/config"
	pkgerrors "ontology-backend/pkg/errors"
)

// ChangeLogPage is one page of a node's change log.
type ChangeLogPage struct {
	Changes []changelog.NodeChange `json:"changes"`
	Total   int                    `json:"total"`
	Limit   int                    `json:"limit"`
	Offset  int                    `json:"offset"`
}

// ChangeLogService reads node change logs.
type ChangeLogService struct {
	changes ports.ChangeLogRepository
	cfg     *config.DomainConfig
}

// NewChangeLogService creates a new change log service.
func NewChangeLogService(changes ports.ChangeLogRepository, cfg *config.DomainConfig) *ChangeLogService {
	return &ChangeLogService{changes: changes, cfg: cfg}
}

// GetNodeChangeLogs returns the newest changes of nodeID first. Non-positive
// limits fall back to the configured default.
func (s *ChangeLogService) GetNodeChangeLogs(ctx context.Context, nodeID string, limit, offset int) (*ChangeLogPage, error) {
	if nodeID == "" {
		return nil, pkgerrors.NewValidationError("nodeId is required")
	}
	if limit <= 0 {
		limit = s.cfg.DefaultChangesLimit
	}
	if limit > s.cfg.MaxChangesLimit {
		limit = s.cfg.MaxChangesLimit
	}
	if offset < 0 {
		offset = 0
	}
	changes, total, err := s.changes.ListByNode(ctx, nodeID, limit, offset)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, pkgerrors.NoChangesFound(nodeID)
	}
	return &ChangeLogPage{Changes: changes, Total: total, Limit: limit, Offset: offset}, nil
}
