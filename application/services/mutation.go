package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ontology-backend/application/ports"
	"ontology-backend/domain/changelog"
	"ontology-backend/domain/config"
	"ontology-backend/domain/core/entities"
	"ontology-backend/domain/events"
	"ontology-backend/domain/services/inheritance"
	pkgerrors "ontology-backend/pkg/errors"
	"ontology-backend/pkg/utils"
)

// PropagationLock is the lock resource guarding every propagating write.
const PropagationLock = "ontology-propagation"

// maxLoadRounds bounds how often an operation is re-run after loading a
// node the engine asked for.
const maxLoadRounds = 64

// Operation describes one mutating request.
type Operation struct {
	Name      string
	Actor     string
	Reasoning string
	// Seeds are loaded together with their ancestors, descendants, parts and
	// inheritance sources before the operation runs.
	Seeds []string
}

// Result reports what an operation wrote.
type Result struct {
	Written []string
}

// Mutator runs operations against an in-memory graph and commits the
// resulting diff.
type Mutator struct {
	nodes     ports.NodeRepository
	batch     ports.WriteBatch
	changes   ports.ChangeLogRepository
	publisher ports.EventPublisher
	locker    ports.Locker
	indexer   *SearchIndexService
	metrics   ports.Metrics
	cfg       *config.DomainConfig
	clock     utils.Clock
	logger    *zap.Logger
}

// NewMutator creates a mutator. indexer and metrics may be nil.
func NewMutator(
	nodes ports.NodeRepository,
	batch ports.WriteBatch,
	changes ports.ChangeLogRepository,
	publisher ports.EventPublisher,
	locker ports.Locker,
	indexer *SearchIndexService,
	metrics ports.Metrics,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *Mutator {
	return &Mutator{
		nodes:     nodes,
		batch:     batch,
		changes:   changes,
		publisher: publisher,
		locker:    locker,
		indexer:   indexer,
		metrics:   metrics,
		cfg:       cfg,
		clock:     utils.SystemClock,
		logger:    logger,
	}
}

// WithClock overrides the time source.
func (m *Mutator) WithClock(clock utils.Clock) *Mutator {
	m.clock = clock
	return m
}

// Execute acquires the propagation lock, loads the neighbourhood of
// op.Seeds, runs fn and commits what it changed. fn may be called several
// times and must only touch state reachable from the session.
func (m *Mutator) Execute(ctx context.Context, op Operation, fn func(s *Session) error) (*Result, error) {
	lock, err := m.locker.Acquire(ctx, PropagationLock, op.Actor, m.cfg.LockTTL, m.cfg.LockAcquireTimeout)
	if err != nil {
		if m.metrics != nil && pkgerrors.HasCode(err, pkgerrors.CodeLockTimeout) {
			m.metrics.IncLockContention()
		}
		return nil, err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			m.logger.Warn("Failed to release propagation lock", zap.String("operation", op.Name), zap.Error(err))
		}
	}()

	ld := newLoader(m.nodes)
	if err := ld.preload(ctx, op.Seeds); err != nil {
		return nil, err
	}

	var s *Session
	for round := 0; ; round++ {
		s = m.newSession(ctx, op, ld)
		err = fn(s)
		if err == nil {
			break
		}
		id, ok := inheritance.IsNodeNotLoaded(err)
		if !ok {
			return nil, err
		}
		if ld.missing[id] {
			return nil, pkgerrors.NodeNotFound(id)
		}
		if round >= maxLoadRounds {
			return nil, pkgerrors.NewInternalError(fmt.Sprintf("operation %s needed too many node loads", op.Name))
		}
		m.logger.Debug("Loading node requested by operation",
			zap.String("operation", op.Name),
			zap.String("nodeId", id),
			zap.Int("round", round),
		)
		if err := ld.preload(ctx, []string{id}); err != nil {
			return nil, err
		}
	}

	return m.commit(ctx, op, s)
}

func (m *Mutator) newSession(ctx context.Context, op Operation, ld *loader) *Session {
	g := inheritance.NewGraph().WithMaxDepth(m.cfg.MaxPropagationDepth)
	for _, n := range ld.cache {
		g.Load(n)
	}
	return &Session{
		ctx:     ctx,
		Graph:   g,
		op:      op,
		missing: ld.missing,
		now:     m.clock(),
		system:  m.cfg.SystemUser,
	}
}

func (m *Mutator) commit(ctx context.Context, op Operation, s *Session) (*Result, error) {
	diff := s.Graph.Diff()
	if err := m.batch.Commit(ctx, diff.Writes); err != nil {
		m.recordFailure(ctx, op, s, err)
		if pkgerrors.IsAppError(err) {
			return nil, err
		}
		return nil, pkgerrors.NewDatabaseError("commit", err)
	}
	if m.metrics != nil {
		m.metrics.ObservePropagation(op.Name, diff.Len())
	}

	if len(s.entries) > 0 {
		changes := make([]changelog.NodeChange, 0, len(s.entries))
		for _, e := range s.entries {
			changes = append(changes, changelog.New(e, s.now))
		}
		if err := m.changes.SaveBatch(ctx, changes); err != nil {
			m.logger.Error("Failed to write change log",
				zap.String("operation", op.Name),
				zap.Int("entries", len(changes)),
				zap.Error(err),
			)
		}
	}

	evs := s.events
	if s.origin != "" {
		var affected []string
		for _, id := range diff.IDs() {
			if id != s.origin {
				affected = append(affected, id)
			}
		}
		if len(affected) > 0 {
			evs = append(evs, events.NewPropertiesPropagated(s.origin, affected, op.Actor, s.now))
		}
	}
	if m.cfg.EnableEvents && m.publisher != nil && len(evs) > 0 {
		if err := m.publisher.PublishBatch(ctx, evs); err != nil {
			m.logger.Error("Failed to publish domain events",
				zap.String("operation", op.Name),
				zap.Int("eventCount", len(evs)),
				zap.Error(err),
			)
		}
	}

	if m.indexer != nil && m.cfg.EnableSearchIndexing && len(s.indexed) > 0 {
		nodes := make([]*entities.Node, 0, len(s.indexed))
		for _, id := range s.indexed {
			if n, err := s.Graph.Node(id); err == nil {
				nodes = append(nodes, n)
			}
		}
		if err := m.indexer.IndexNodes(ctx, s.Graph, nodes); err != nil {
			m.logger.Warn("Failed to update search index", zap.String("operation", op.Name), zap.Error(err))
		}
	}

	m.logger.Info("Operation committed",
		zap.String("operation", op.Name),
		zap.String("actor", op.Actor),
		zap.Int("nodesWritten", diff.Len()),
		zap.Int("changeLogs", len(s.entries)),
	)
	return &Result{Written: diff.IDs()}, nil
}

// recordFailure logs a failed commit and stores an error side record.
func (m *Mutator) recordFailure(ctx context.Context, op Operation, s *Session, err error) {
	report := pkgerrors.Capture(err)
	m.logger.Error("Operation commit failed",
		zap.String("operation", op.Name),
		zap.String("errorName", report.Name),
		zap.String("errorMessage", report.Message),
		zap.String("stack", report.Stack),
	)
	nodeID := s.origin
	if nodeID == "" && len(op.Seeds) > 0 {
		nodeID = op.Seeds[0]
	}
	record := changelog.New(changelog.Entry{
		NodeID:        nodeID,
		ModifiedBy:    op.Actor,
		ChangeType:    changelog.ChangeError,
		Reasoning:     op.Reasoning,
		ChangeDetails: map[string]any{"name": report.Name, "message": report.Message, "stack": report.Stack, "operation": op.Name},
	}, s.now)
	if err := m.changes.SaveBatch(ctx, []changelog.NodeChange{record}); err != nil {
		m.logger.Error("Failed to store error record", zap.Error(err))
	}
}

// Session is the state of one run of an operation.
type Session struct {
	ctx     context.Context
	Graph   *inheritance.Graph
	op      Operation
	missing map[string]bool
	now     time.Time
	system  string
	origin  string
	entries []changelog.Entry
	events  []events.DomainEvent
	indexed []string
}

// Context returns the request context.
func (s *Session) Context() context.Context { return s.ctx }

// Actor returns the acting username.
func (s *Session) Actor() string { return s.op.Actor }

// Now returns the operation timestamp.
func (s *Session) Now() time.Time { return s.now }

// Node returns a loaded node. Unknown IDs surface as NODE_NOT_FOUND; IDs that
// were never loaded make the operation load them and run again.
func (s *Session) Node(id string) (*entities.Node, error) {
	n, err := s.Graph.Node(id)
	if err != nil && s.missing[id] {
		return nil, pkgerrors.NodeNotFound(id)
	}
	return n, err
}

// Editable returns a node that may be modified.
func (s *Session) Editable(id string) (*entities.Node, error) {
	n, err := s.Node(id)
	if err != nil {
		return nil, err
	}
	if err := n.EnsureEditable(); err != nil {
		return nil, err
	}
	return n, nil
}

// RequireLive checks that every id names an existing, non-deleted node.
func (s *Session) RequireLive(ids []string) error {
	for _, id := range ids {
		n, err := s.Node(id)
		if err != nil {
			return err
		}
		if n.Deleted {
			return pkgerrors.NodeAlreadyDeleted(id)
		}
	}
	return nil
}

// Touch marks a node as written.
func (s *Session) Touch(n *entities.Node) {
	s.Graph.Touch(n.ID)
}

// Log marks n as written, records a change-log entry against it and credits
// the actor as a contributor. Anonymous and system edits are not logged.
func (s *Session) Log(n *entities.Node, e changelog.Entry) {
	s.Graph.Touch(n.ID)
	if !changelog.ShouldRecord(s.op.Actor, s.system) {
		return
	}
	e.NodeID = n.ID
	e.ModifiedBy = s.op.Actor
	if e.Reasoning == "" {
		e.Reasoning = s.op.Reasoning
	}
	e.FullNode = n
	n.AddContributor(s.op.Actor, e.ModifiedProperty)
	s.entries = append(s.entries, e)
}

// Emit queues a domain event for publication after commit.
func (s *Session) Emit(ev events.DomainEvent) {
	s.events = append(s.events, ev)
}

// PropagatedFrom marks id as the origin of inheritance propagation so that
// one summary event covers every descendant written.
func (s *Session) PropagatedFrom(id string) {
	s.origin = id
}

// Index queues nodes for search indexing after commit.
func (s *Session) Index(ids ...string) {
	s.indexed = append(s.indexed, ids...)
}

// Entries returns the change-log entries recorded so far.
func (s *Session) Entries() []changelog.Entry {
	return s.entries
}
