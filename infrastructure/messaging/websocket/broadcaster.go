package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"go.uber.org/zap"
)

// PostAPI is the part of the API Gateway management client used to push
// messages.
type PostAPI interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

// ClientFactory returns a management client for a connection endpoint.
type ClientFactory func(endpoint string) PostAPI

// NewClientFactory builds management clients from cfg. A non-empty
// override replaces the endpoint recorded with each connection.
func NewClientFactory(cfg aws.Config, override string) ClientFactory {
	clients := make(map[string]PostAPI)
	return func(endpoint string) PostAPI {
		if override != "" {
			endpoint = override
		}
		if c, ok := clients[endpoint]; ok {
			return c
		}
		c := apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
			o.BaseEndpoint = aws.String("https://" + endpoint)
		})
		clients[endpoint] = c
		return c
	}
}

// Message is what connected clients receive.
type Message struct {
	Type      string          `json:"type"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Broadcaster sends change events to every open connection.
type Broadcaster struct {
	store   *ConnectionStore
	clients ClientFactory
	logger  *zap.Logger
}

// NewBroadcaster creates a broadcaster.
func NewBroadcaster(store *ConnectionStore, clients ClientFactory, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{store: store, clients: clients, logger: logger}
}

// HandleEvent forwards an EventBridge domain event to every connection.
func (b *Broadcaster) HandleEvent(ctx context.Context, event events.CloudWatchEvent) error {
	msg := Message{Type: event.DetailType, Timestamp: event.Time.Unix(), Data: event.Detail}
	if event.Time.IsZero() {
		msg.Timestamp = time.Now().Unix()
	}
	_, err := b.Broadcast(ctx, msg)
	return err
}

// Broadcast sends msg to all active connections and returns how many
// received it. Connections API Gateway reports gone are removed.
func (b *Broadcaster) Broadcast(ctx context.Context, msg Message) (int, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal message: %w", err)
	}
	conns, err := b.store.Active(ctx)
	if err != nil {
		return 0, err
	}

	sent, failed := 0, 0
	for _, conn := range conns {
		_, err := b.clients(conn.Endpoint).PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
			ConnectionId: aws.String(conn.ConnectionID),
			Data:         payload,
		})
		var gone *apigwtypes.GoneException
		switch {
		case err == nil:
			sent++
		case errors.As(err, &gone):
			b.logger.Info("Removing stale connection", zap.String("connectionId", conn.ConnectionID))
			if err := b.store.Remove(ctx, conn.ConnectionID); err != nil {
				b.logger.Warn("Failed to remove stale connection", zap.String("connectionId", conn.ConnectionID), zap.Error(err))
			}
		default:
			failed++
			b.logger.Warn("Failed to post to connection", zap.String("connectionId", conn.ConnectionID), zap.Error(err))
		}
	}

	b.logger.Info("Broadcast complete",
		zap.String("type", msg.Type),
		zap.Int("sent", sent),
		zap.Int("failed", failed),
	)
	if failed > 0 && sent == 0 {
		return 0, fmt.Errorf("all %d message sends failed", failed)
	}
	return sent, nil
}
