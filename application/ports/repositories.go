package ports

import (
	"context"
	"time"

	"ontology-backend/domain/changelog"
	"ontology-backend/domain/core/entities"
	"ontology-backend/domain/events"
)

// NodeRepository defines the interface for node persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type NodeRepository interface {
	// GetByID retrieves a node, failing with NODE_NOT_FOUND when absent
	GetByID(ctx context.Context, id string) (*entities.Node, error)

	// GetMany retrieves the nodes that exist among ids, keyed by ID
	GetMany(ctx context.Context, ids []string) (map[string]*entities.Node, error)

	// Save persists a single node (create or replace)
	Save(ctx context.Context, node *entities.Node) error

	// List returns one page of nodes matching filter, ordered by ID, and the
	// total number of matches
	List(ctx context.Context, filter NodeFilter) ([]*entities.Node, int, error)
}

// NodeFilter narrows ListNodes results.
type NodeFilter struct {
	NodeType string
	Root     string
	Deleted  bool
	Limit    int
	Offset   int
}

// WriteBatch commits many node snapshots. Implementations split the writes
// into chunks and commit chunk by chunk; a failure leaves earlier chunks
// applied.
type WriteBatch interface {
	Commit(ctx context.Context, nodes []*entities.Node) error
}

// ChangeLogRepository persists the node change log.
type ChangeLogRepository interface {
	// SaveBatch appends change-log entries
	SaveBatch(ctx context.Context, changes []changelog.NodeChange) error

	// ListByNode returns a page of entries for a node, newest first, and the
	// total count
	ListByNode(ctx context.Context, nodeID string, limit, offset int) ([]changelog.NodeChange, int, error)
}

// APIKeyRepository persists API keys by hash.
type APIKeyRepository interface {
	Save(ctx context.Context, key *entities.APIKey) error
	GetByHash(ctx context.Context, keyHash string) (*entities.APIKey, error)
	ListByUser(ctx context.Context, userID string) ([]*entities.APIKey, error)
}

// Locker serializes propagating writes across requests.
type Locker interface {
	Acquire(ctx context.Context, resource, owner string, ttl, timeout time.Duration) (Lock, error)
}

// Lock is a held lock.
type Lock interface {
	Release(ctx context.Context) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// SearchDocument is the text indexed for a node.
type SearchDocument struct {
	ID         string `json:"id"`
	Collection string `json:"collection"`
	Title      string `json:"title"`
	NodeType   string `json:"nodeType"`
	Content    string `json:"content"`
}

// SearchIndexer pushes node documents to the external search index.
type SearchIndexer interface {
	Upsert(ctx context.Context, docs []SearchDocument) error
	Remove(ctx context.Context, collection string, ids []string) error
}

// Metrics receives application level measurements.
type Metrics interface {
	ObservePropagation(operation string, nodesWritten int)
	IncLockContention()
}
