package memory

import (
	"context"
	"sort"
	"sync"

	"ontology-backend/domain/core/entities"
	pkgerrors "ontology-backend/pkg/errors"
)

// APIKeyStore keeps API keys by hash.
type APIKeyStore struct {
	mu   sync.RWMutex
	keys map[string]entities.APIKey
}

// NewAPIKeyStore creates an empty store.
func NewAPIKeyStore() *APIKeyStore {
	return &APIKeyStore{keys: map[string]entities.APIKey{}}
}

// Save creates or replaces a key.
func (s *APIKeyStore) Save(ctx context.Context, key *entities.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[key.KeyHash] = *key
	return nil
}

// GetByHash returns the key stored under keyHash.
func (s *APIKeyStore) GetByHash(ctx context.Context, keyHash string) (*entities.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.keys[keyHash]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("API key")
	}
	return &k, nil
}

// ListByUser returns the keys of userID, oldest first.
func (s *APIKeyStore) ListByUser(ctx context.Context, userID string) ([]*entities.APIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*entities.APIKey
	for _, k := range s.keys {
		if k.UserID == userID {
			k := k
			out = append(out, &k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
