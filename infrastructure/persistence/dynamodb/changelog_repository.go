package dynamodb

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

	"ontology-backend/application/ports"
	"ontology-backend/domain/changelog"
)

const maxBatchWriteItems = 25

// changeItem adds a sortable timestamp to the stored entry. RFC3339Nano
// strings with a fixed UTC zone sort lexicographically in time order.
type changeItem struct {
	changelog.NodeChange
	ModifiedAtKey string `dynamodbav:"modifiedAtKey"`
}

// ChangeLogRepository stores change-log entries keyed by "id". The
// NodeChangesIndex GSI (partition "nodeId", sort "modifiedAtKey") serves
// per-node reads.
type ChangeLogRepository struct {
	client    Client
	tableName string
	nodeIndex string
	logger    *zap.Logger
}

var _ ports.ChangeLogRepository = (*ChangeLogRepository)(nil)

// NewChangeLogRepository creates a new change log repository
func NewChangeLogRepository(client Client, tableName, nodeIndex string, logger *zap.Logger) *ChangeLogRepository {
	return &ChangeLogRepository{client: client, tableName: tableName, nodeIndex: nodeIndex, logger: logger}
}

// SaveBatch writes entries with BatchWriteItem, 25 at a time.
func (r *ChangeLogRepository) SaveBatch(ctx context.Context, changes []changelog.NodeChange) error {
	for _, group := range chunk(changes, maxBatchWriteItems) {
		requests := make([]types.WriteRequest, 0, len(group))
		for _, c := range group {
			item, err := attributevalue.MarshalMap(changeItem{
				NodeChange:    c,
				ModifiedAtKey: c.ModifiedAt.UTC().Format(time.RFC3339Nano),
			})
			if err != nil {
				return fmt.Errorf("failed to marshal change %s: %w", c.ID, err)
			}
			requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}

		pending := map[string][]types.WriteRequest{r.tableName: requests}
		for attempt := 0; len(pending) > 0; attempt++ {
			if attempt > 5 {
				return fmt.Errorf("change log write left %d unprocessed items", len(pending[r.tableName]))
			}
			out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return mapError("SaveChangeLogs", err)
			}
			pending = out.UnprocessedItems
		}
	}
	return nil
}

// ListByNode returns entries for nodeID, newest first.
func (r *ChangeLogRepository) ListByNode(ctx context.Context, nodeID string, limit, offset int) ([]changelog.NodeChange, int, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("nodeId").Equal(expression.Value(nodeID))).
		Build()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build expression: %w", err)
	}

	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.nodeIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	})

	var all []changelog.NodeChange
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, 0, mapError("ListChangeLogs", err)
		}
		for _, item := range page.Items {
			var ci changeItem
			if err := attributevalue.UnmarshalMap(item, &ci); err != nil {
				r.logger.Warn("Skipping unreadable change log entry", zap.String("nodeId", nodeID), zap.Error(err))
				continue
			}
			all = append(all, ci.NodeChange)
		}
	}

	total := len(all)
	if offset >= total {
		return []changelog.NodeChange{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total, nil
}
