package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ontology-backend/domain/changelog"
	"ontology-backend/domain/config"
	"ontology-backend/domain/events"
	"ontology-backend/infrastructure/persistence/memory"
	pkgerrors "ontology-backend/pkg/errors"
	"ontology-backend/tests/fixtures"
	"ontology-backend/tests/mocks"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func retitle(title string) func(s *Session) error {
	return func(s *Session) error {
		n, err := s.Editable("a")
		if err != nil {
			return err
		}
		n.Title = title
		s.Log(n, changelog.Entry{ChangeType: changelog.ChangeEditProperty, ModifiedProperty: "title", NewValue: title})
		s.Emit(events.NewNodeUpdated(n.ID, []string{"title"}, s.Actor(), s.Now()))
		return nil
	}
}

func TestMutator_Execute_CommitsAndPublishes(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := memory.NewNodeStore(fixtures.NewNodeBuilder().WithID("a").WithTitle("A").MustBuild())
	changes := memory.NewChangeLogStore()
	publisher := new(mocks.MockEventPublisher)
	metrics := new(mocks.MockMetrics)
	publisher.On("PublishBatch", mock.Anything, mock.MatchedBy(func(evs []events.DomainEvent) bool {
		return len(evs) == 1 && evs[0].GetEventType() == events.TypeNodeUpdated
	})).Return(nil)
	metrics.On("ObservePropagation", "retitle", 1).Return()

	m := NewMutator(store, store, changes, publisher, memory.NewLocker(), nil, metrics, config.DefaultDomainConfig(), zap.NewNop()).
		WithClock(func() time.Time { return fixedNow })

	// Act
	result, err := m.Execute(ctx, Operation{Name: "retitle", Actor: "alice", Reasoning: "typo", Seeds: []string{"a"}}, retitle("B"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, result.Written)

	stored, err := store.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "B", stored.Title)
	assert.Contains(t, stored.Contributors, "alice")

	logged := changes.All()
	require.Len(t, logged, 1)
	assert.Equal(t, "alice", logged[0].ModifiedBy)
	assert.Equal(t, "typo", logged[0].Reasoning)
	assert.Equal(t, fixedNow, logged[0].ModifiedAt)
	publisher.AssertExpectations(t)
	metrics.AssertExpectations(t)
}

func TestMutator_Execute_PublishFailureKeepsCommit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewNodeStore(fixtures.NewNodeBuilder().WithID("a").MustBuild())
	publisher := new(mocks.MockEventPublisher)
	publisher.On("PublishBatch", mock.Anything, mock.Anything).Return(errors.New("bus down"))
	m := NewMutator(store, store, memory.NewChangeLogStore(), publisher, memory.NewLocker(), nil, nil, config.DefaultDomainConfig(), zap.NewNop())

	_, err := m.Execute(ctx, Operation{Name: "retitle", Actor: "alice", Seeds: []string{"a"}}, retitle("B"))

	require.NoError(t, err)
	stored, _ := store.GetByID(ctx, "a")
	assert.Equal(t, "B", stored.Title)
}

func TestMutator_Execute_EventsDisabled(t *testing.T) {
	ctx := context.Background()
	store := memory.NewNodeStore(fixtures.NewNodeBuilder().WithID("a").MustBuild())
	publisher := new(mocks.MockEventPublisher)
	cfg := config.DefaultDomainConfig()
	cfg.EnableEvents = false
	m := NewMutator(store, store, memory.NewChangeLogStore(), publisher, memory.NewLocker(), nil, nil, cfg, zap.NewNop())

	_, err := m.Execute(ctx, Operation{Name: "retitle", Actor: "alice", Seeds: []string{"a"}}, retitle("B"))

	require.NoError(t, err)
	publisher.AssertNotCalled(t, "PublishBatch", mock.Anything, mock.Anything)
}

func TestMutator_Execute_CommitFailureRecordsError(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := memory.NewNodeStore(fixtures.NewNodeBuilder().WithID("a").WithTitle("A").MustBuild())
	store.FailCommit = errors.New("throttled")
	changes := memory.NewChangeLogStore()
	published := memory.NewEventLog()
	m := NewMutator(store, store, changes, published, memory.NewLocker(), nil, nil, config.DefaultDomainConfig(), zap.NewNop())

	// Act
	_, err := m.Execute(ctx, Operation{Name: "retitle", Actor: "alice", Reasoning: "typo", Seeds: []string{"a"}}, retitle("B"))

	// Assert
	require.Error(t, err)
	assert.True(t, pkgerrors.IsAppError(err))

	stored, _ := store.GetByID(ctx, "a")
	assert.Equal(t, "A", stored.Title)

	logged := changes.All()
	require.Len(t, logged, 1)
	assert.Equal(t, changelog.ChangeError, logged[0].ChangeType)
	assert.Equal(t, "a", logged[0].NodeID)
	assert.Equal(t, "retitle", logged[0].ChangeDetails["operation"])
	assert.Empty(t, published.Events())
}

func TestMutator_Execute_SystemUserNotLogged(t *testing.T) {
	ctx := context.Background()
	store := memory.NewNodeStore(fixtures.NewNodeBuilder().WithID("a").MustBuild())
	changes := memory.NewChangeLogStore()
	cfg := config.DefaultDomainConfig()
	m := NewMutator(store, store, changes, memory.NewEventLog(), memory.NewLocker(), nil, nil, cfg, zap.NewNop())

	result, err := m.Execute(ctx, Operation{Name: "retitle", Actor: cfg.SystemUser, Seeds: []string{"a"}}, retitle("B"))

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, result.Written)
	assert.Empty(t, changes.All())
}

func TestMutator_Execute_LockContention(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := memory.NewNodeStore(fixtures.NewNodeBuilder().WithID("a").MustBuild())
	locker := memory.NewLocker()
	held, err := locker.Acquire(ctx, PropagationLock, "bob", time.Minute, time.Second)
	require.NoError(t, err)
	defer held.Release(ctx)

	metrics := new(mocks.MockMetrics)
	metrics.On("IncLockContention").Return()
	cfg := config.DefaultDomainConfig()
	cfg.LockAcquireTimeout = 20 * time.Millisecond
	m := NewMutator(store, store, memory.NewChangeLogStore(), nil, locker, nil, metrics, cfg, zap.NewNop())

	// Act
	_, err = m.Execute(ctx, Operation{Name: "retitle", Actor: "alice", Seeds: []string{"a"}}, retitle("B"))

	// Assert
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeLockTimeout))
	metrics.AssertExpectations(t)
}

func TestMutator_Execute_LoadsRequestedNodes(t *testing.T) {
	ctx := context.Background()
	store := memory.NewNodeStore(
		fixtures.NewNodeBuilder().WithID("a").MustBuild(),
		fixtures.NewNodeBuilder().WithID("far").WithTitle("Far").MustBuild(),
	)
	m := NewMutator(store, store, memory.NewChangeLogStore(), nil, memory.NewLocker(), nil, nil, config.DefaultDomainConfig(), zap.NewNop())

	runs := 0
	var title string
	_, err := m.Execute(ctx, Operation{Name: "peek", Actor: "alice", Seeds: []string{"a"}}, func(s *Session) error {
		runs++
		n, err := s.Node("far")
		if err != nil {
			return err
		}
		title = n.Title
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, runs)
	assert.Equal(t, "Far", title)
}

func TestMutator_Execute_UnknownNode(t *testing.T) {
	ctx := context.Background()
	store := memory.NewNodeStore(fixtures.NewNodeBuilder().WithID("a").MustBuild())
	m := NewMutator(store, store, memory.NewChangeLogStore(), nil, memory.NewLocker(), nil, nil, config.DefaultDomainConfig(), zap.NewNop())

	_, err := m.Execute(ctx, Operation{Name: "peek", Actor: "alice", Seeds: []string{"a"}}, func(s *Session) error {
		_, err := s.Node("ghost")
		return err
	})

	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNodeNotFound))
}

func TestMutator_Execute_PropagationSummaryEvent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewNodeStore(
		fixtures.NewNodeBuilder().WithID("a").MustBuild(),
		fixtures.NewNodeBuilder().WithID("b").MustBuild(),
	)
	log := memory.NewEventLog()
	m := NewMutator(store, store, memory.NewChangeLogStore(), log, memory.NewLocker(), nil, nil, config.DefaultDomainConfig(), zap.NewNop())

	_, err := m.Execute(ctx, Operation{Name: "propagate", Actor: "alice", Seeds: []string{"a", "b"}}, func(s *Session) error {
		for _, id := range []string{"a", "b"} {
			n, err := s.Node(id)
			if err != nil {
				return err
			}
			s.Touch(n)
		}
		s.PropagatedFrom("a")
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, []string{events.TypePropertiesPropagated}, log.Types())
	ev := log.Events()[0].(events.PropertiesPropagated)
	assert.Equal(t, "a", ev.OriginID)
	assert.Equal(t, []string{"b"}, ev.AffectedIDs)
}
