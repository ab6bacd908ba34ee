package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"ontology-backend/application/ports"
	"ontology-backend/domain/core/entities"
	pkgerrors "ontology-backend/pkg/errors"
)

// APIKeyRepository stores API keys keyed by "keyHash" with a UserIndex GSI
// on "userId".
type APIKeyRepository struct {
	client    Client
	tableName string
	userIndex string
	logger    *zap.Logger
}

var _ ports.APIKeyRepository = (*APIKeyRepository)(nil)

// NewAPIKeyRepository creates a new API key repository
func NewAPIKeyRepository(client Client, tableName, userIndex string, logger *zap.Logger) *APIKeyRepository {
	return &APIKeyRepository{client: client, tableName: tableName, userIndex: userIndex, logger: logger}
}

// Save creates or replaces a key.
func (r *APIKeyRepository) Save(ctx context.Context, key *entities.APIKey) error {
	item, err := attributevalue.MarshalMap(key)
	if err != nil {
		return fmt.Errorf("failed to marshal api key: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	}); err != nil {
		return mapError("SaveAPIKey", err)
	}
	return nil
}

// GetByHash returns the key with keyHash or a not-found error.
func (r *APIKeyRepository) GetByHash(ctx context.Context, keyHash string) (*entities.APIKey, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"keyHash": &types.AttributeValueMemberS{Value: keyHash},
		},
	})
	if err != nil {
		return nil, mapError("GetAPIKey", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("API key")
	}
	var key entities.APIKey
	if err := attributevalue.UnmarshalMap(out.Item, &key); err != nil {
		return nil, fmt.Errorf("failed to unmarshal api key: %w", err)
	}
	return &key, nil
}

// ListByUser returns every key of userID.
func (r *APIKeyRepository) ListByUser(ctx context.Context, userID string) ([]*entities.APIKey, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("userId").Equal(expression.Value(userID))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.userIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	keys := []*entities.APIKey{}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, mapError("ListAPIKeys", err)
		}
		var batch []*entities.APIKey
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal api keys: %w", err)
		}
		keys = append(keys, batch...)
	}
	return keys, nil
}
