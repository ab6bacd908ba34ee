// Package websocket pushes ontology change events to connected editors over
// API Gateway websocket connections.
package websocket

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	pkgerrors "ontology-backend/pkg/errors"
)

// DynamoAPI is the part of the DynamoDB client the connection store needs.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Connection is an open websocket connection.
type Connection struct {
	ConnectionID string
	UserID       string
	Endpoint     string
	ConnectedAt  time.Time
	ExpiresAt    time.Time
}

type connectionRecord struct {
	PK           string `dynamodbav:"PK"`
	ConnectionID string `dynamodbav:"ConnectionID"`
	UserID       string `dynamodbav:"UserID"`
	Endpoint     string `dynamodbav:"Endpoint"`
	ConnectedAt  string `dynamodbav:"ConnectedAt"`
	ExpireAt     int64  `dynamodbav:"expireAt"`
}

func connectionKey(id string) string {
	return "CONN#" + id
}

// ConnectionStore keeps open connections in DynamoDB. Records carry a TTL so
// connections that never disconnect cleanly expire.
type ConnectionStore struct {
	client    DynamoAPI
	tableName string
	now       func() time.Time
	logger    *zap.Logger
}

// NewConnectionStore creates a connection store on tableName.
func NewConnectionStore(client DynamoAPI, tableName string, logger *zap.Logger) *ConnectionStore {
	return &ConnectionStore{client: client, tableName: tableName, now: time.Now, logger: logger}
}

// Save records conn.
func (s *ConnectionStore) Save(ctx context.Context, conn Connection) error {
	item, err := attributevalue.MarshalMap(connectionRecord{
		PK:           connectionKey(conn.ConnectionID),
		ConnectionID: conn.ConnectionID,
		UserID:       conn.UserID,
		Endpoint:     conn.Endpoint,
		ConnectedAt:  conn.ConnectedAt.UTC().Format(time.RFC3339),
		ExpireAt:     conn.ExpiresAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal connection: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return pkgerrors.NewDatabaseError("SaveConnection", err)
	}
	return nil
}

// Remove deletes the connection record.
func (s *ConnectionStore) Remove(ctx context.Context, connectionID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: connectionKey(connectionID)},
		},
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("RemoveConnection", err)
	}
	return nil
}

// Active lists the connections that have not expired.
func (s *ConnectionStore) Active(ctx context.Context) ([]Connection, error) {
	expr, err := expression.NewBuilder().
		WithFilter(expression.Name("expireAt").GreaterThan(expression.Value(s.now().Unix()))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	var conns []Connection
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                 aws.String(s.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("ListConnections", err)
		}
		var records []connectionRecord
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &records); err != nil {
			return nil, fmt.Errorf("failed to unmarshal connections: %w", err)
		}
		for _, r := range records {
			connectedAt, _ := time.Parse(time.RFC3339, r.ConnectedAt)
			conns = append(conns, Connection{
				ConnectionID: r.ConnectionID,
				UserID:       r.UserID,
				Endpoint:     r.Endpoint,
				ConnectedAt:  connectedAt,
				ExpiresAt:    time.Unix(r.ExpireAt, 0),
			})
		}
	}
	s.logger.Debug("Loaded websocket connections", zap.Int("count", len(conns)))
	return conns, nil
}
