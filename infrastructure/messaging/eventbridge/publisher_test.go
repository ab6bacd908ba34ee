package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ontology-backend/domain/events"
	pkgerrors "ontology-backend/pkg/errors"
)

type fakeAPI struct {
	calls []*eventbridge.PutEventsInput
	fn    func(call int, in *eventbridge.PutEventsInput) (*eventbridge.PutEventsOutput, error)
}

func (f *fakeAPI) PutEvents(_ context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.calls = append(f.calls, in)
	if f.fn == nil {
		return &eventbridge.PutEventsOutput{}, nil
	}
	return f.fn(len(f.calls), in)
}

var at = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func updates(n int) []events.DomainEvent {
	out := make([]events.DomainEvent, n)
	for i := range out {
		out[i] = events.NewNodeUpdated("node", []string{"title"}, "alice", at)
	}
	return out
}

func newTestPublisher(api API) *Publisher {
	p := NewPublisher(api, "ontology-bus", "ontology.api", zap.NewNop())
	p.backoff = time.Millisecond
	return p
}

func TestPublisher_BatchesByTen(t *testing.T) {
	// Arrange
	api := &fakeAPI{}
	p := newTestPublisher(api)

	// Act
	err := p.PublishBatch(context.Background(), updates(23))

	// Assert
	require.NoError(t, err)
	require.Len(t, api.calls, 3)
	assert.Len(t, api.calls[0].Entries, 10)
	assert.Len(t, api.calls[2].Entries, 3)

	entry := api.calls[0].Entries[0]
	assert.Equal(t, "ontology-bus", aws.ToString(entry.EventBusName))
	assert.Equal(t, "ontology.api", aws.ToString(entry.Source))
	assert.Equal(t, events.TypeNodeUpdated, aws.ToString(entry.DetailType))

	var detail map[string]any
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail))
	assert.Equal(t, "node", detail["node_id"])
}

func TestPublisher_RetriesThrottling(t *testing.T) {
	api := &fakeAPI{fn: func(call int, _ *eventbridge.PutEventsInput) (*eventbridge.PutEventsOutput, error) {
		if call == 1 {
			return nil, &smithy.GenericAPIError{Code: "ThrottlingException"}
		}
		return &eventbridge.PutEventsOutput{}, nil
	}}
	p := newTestPublisher(api)

	err := p.Publish(context.Background(), updates(1)[0])

	require.NoError(t, err)
	assert.Len(t, api.calls, 2)
}

func TestPublisher_FailedEntries(t *testing.T) {
	api := &fakeAPI{fn: func(int, *eventbridge.PutEventsInput) (*eventbridge.PutEventsOutput, error) {
		return &eventbridge.PutEventsOutput{
			FailedEntryCount: 1,
			Entries: []types.PutEventsResultEntry{
				{EventId: aws.String("1")},
				{ErrorCode: aws.String("InternalFailure"), ErrorMessage: aws.String("boom")},
			},
		}, nil
	}}
	p := newTestPublisher(api)

	err := p.PublishBatch(context.Background(), updates(2))

	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal))
	assert.Len(t, api.calls, 1)
}

func TestPublisher_GivesUpAfterRetries(t *testing.T) {
	api := &fakeAPI{fn: func(int, *eventbridge.PutEventsInput) (*eventbridge.PutEventsOutput, error) {
		return nil, errors.New("connection refused")
	}}
	p := newTestPublisher(api)

	err := p.Publish(context.Background(), updates(1)[0])

	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeExternal))
	assert.Len(t, api.calls, 3)
}

func TestPublisher_EmptyBatch(t *testing.T) {
	api := &fakeAPI{}

	require.NoError(t, newTestPublisher(api).PublishBatch(context.Background(), nil))
	assert.Empty(t, api.calls)
}
