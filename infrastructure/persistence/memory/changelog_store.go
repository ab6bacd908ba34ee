package memory

import (
	"context"
	"sort"
	"sync"

	"ontology-backend/domain/changelog"
)

// ChangeLogStore keeps change-log entries in insertion order.
type ChangeLogStore struct {
	mu      sync.RWMutex
	changes []changelog.NodeChange
}

// NewChangeLogStore creates an empty store.
func NewChangeLogStore() *ChangeLogStore {
	return &ChangeLogStore{}
}

// SaveBatch appends changes.
func (s *ChangeLogStore) SaveBatch(ctx context.Context, changes []changelog.NodeChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.changes = append(s.changes, changes...)
	return nil
}

// ListByNode returns a page of the entries of nodeID, newest first.
func (s *ChangeLogStore) ListByNode(ctx context.Context, nodeID string, limit, offset int) ([]changelog.NodeChange, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []changelog.NodeChange
	for _, c := range s.changes {
		if c.NodeID == nodeID {
			matched = append(matched, c)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].ModifiedAt.After(matched[j].ModifiedAt)
	})

	total := len(matched)
	start := min(offset, total)
	end := min(start+limit, total)
	return matched[start:end], total, nil
}

// All returns every stored entry in insertion order.
func (s *ChangeLogStore) All() []changelog.NodeChange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]changelog.NodeChange(nil), s.changes...)
}
