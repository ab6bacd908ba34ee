// Package eventbridge publishes domain events to an AWS EventBridge bus.
package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"ontology-backend/application/ports"
	"ontology-backend/domain/events"
	pkgerrors "ontology-backend/pkg/errors"
)

// PutEvents accepts at most 10 entries per call.
const maxEntriesPerCall = 10

// API is the part of the EventBridge client the publisher needs.
type API interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// Publisher implements ports.EventPublisher on EventBridge.
type Publisher struct {
	client     API
	busName    string
	source     string
	maxRetries int
	backoff    time.Duration
	logger     *zap.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a new EventBridge publisher
func NewPublisher(client API, busName, source string, logger *zap.Logger) *Publisher {
	if busName == "" {
		busName = "default"
	}
	if source == "" {
		source = "ontology-backend"
	}
	return &Publisher{
		client:     client,
		busName:    busName,
		source:     source,
		maxRetries: 3,
		backoff:    100 * time.Millisecond,
		logger:     logger,
	}
}

// Publish sends a single event
func (p *Publisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends events in groups of 10.
func (p *Publisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	for i := 0; i < len(domainEvents); i += maxEntriesPerCall {
		end := i + maxEntriesPerCall
		if end > len(domainEvents) {
			end = len(domainEvents)
		}
		if err := p.publishWithRetry(ctx, domainEvents[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) entry(event events.DomainEvent) (types.PutEventsRequestEntry, error) {
	detail, err := json.Marshal(event)
	if err != nil {
		return types.PutEventsRequestEntry{}, fmt.Errorf("failed to marshal %s: %w", event.GetEventType(), err)
	}
	return types.PutEventsRequestEntry{
		EventBusName: aws.String(p.busName),
		Source:       aws.String(p.source),
		DetailType:   aws.String(event.GetEventType()),
		Detail:       aws.String(string(detail)),
		Time:         aws.Time(event.GetTimestamp()),
		Resources:    []string{"node/" + event.GetAggregateID()},
	}, nil
}

func (p *Publisher) publishBatch(ctx context.Context, batch []events.DomainEvent) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(batch))
	sent := make([]events.DomainEvent, 0, len(batch))
	for _, event := range batch {
		e, err := p.entry(event)
		if err != nil {
			p.logger.Error("Failed to marshal event", zap.String("eventType", event.GetEventType()), zap.Error(err))
			continue
		}
		entries = append(entries, e)
		sent = append(sent, event)
	}
	if len(entries) == 0 {
		return nil
	}

	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
	if err != nil {
		return err
	}
	if out.FailedEntryCount > 0 {
		for i, result := range out.Entries {
			if result.ErrorCode != nil && i < len(sent) {
				p.logger.Error("Failed to publish event",
					zap.String("eventType", sent[i].GetEventType()),
					zap.String("aggregateId", sent[i].GetAggregateID()),
					zap.String("errorCode", aws.ToString(result.ErrorCode)),
					zap.String("errorMessage", aws.ToString(result.ErrorMessage)),
				)
			}
		}
		return pkgerrors.NewExternalError("eventbridge",
			fmt.Errorf("%d of %d events failed to publish", out.FailedEntryCount, len(entries)))
	}

	p.logger.Debug("Events published to EventBridge",
		zap.Int("count", len(entries)),
		zap.String("eventBus", p.busName),
	)
	return nil
}

func (p *Publisher) publishWithRetry(ctx context.Context, batch []events.DomainEvent) error {
	backoff := p.backoff
	var err error
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		if err = p.publishBatch(ctx, batch); err == nil {
			return nil
		}
		if !isRetryable(err) || attempt == p.maxRetries {
			break
		}
		p.logger.Warn("Retrying event publication",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if pkgerrors.IsAppError(err) {
		return err
	}
	return pkgerrors.NewExternalError("eventbridge", err)
}

func isRetryable(err error) bool {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "ThrottlingException", "InternalException", "ServiceUnavailable":
			return true
		}
		return false
	}
	return !pkgerrors.IsAppError(err)
}
