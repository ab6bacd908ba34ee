package dynamodb

import (
	"context"
	"fmt"
	"sort"

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

// NodeRepository stores one item per node keyed by "id". The NodeTypeIndex
// GSI (partition "nodeType", sort "id") serves typed listings.
type NodeRepository struct {
	client        Client
	tableName     string
	nodeTypeIndex string
	logger        *zap.Logger
}

// Compile-time interface check
var _ ports.NodeRepository = (*NodeRepository)(nil)

// NewNodeRepository creates a new DynamoDB node repository
func NewNodeRepository(client Client, tableName, nodeTypeIndex string, logger *zap.Logger) *NodeRepository {
	return &NodeRepository{
		client:        client,
		tableName:     tableName,
		nodeTypeIndex: nodeTypeIndex,
		logger:        logger,
	}
}

func nodeKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func marshalNode(n *entities.Node) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal node %s: %w", n.ID, err)
	}
	return item, nil
}

func unmarshalNode(item map[string]types.AttributeValue) (*entities.Node, error) {
	var n entities.Node
	if err := attributevalue.UnmarshalMap(item, &n); err != nil {
		return nil, fmt.Errorf("failed to unmarshal node: %w", err)
	}
	n.EnsureDefaults()
	return &n, nil
}

// GetByID retrieves a node with a strongly consistent read.
func (r *NodeRepository) GetByID(ctx context.Context, id string) (*entities.Node, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            nodeKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, mapError("GetNode", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NodeNotFound(id)
	}
	return unmarshalNode(out.Item)
}

// GetMany fetches nodes in BatchGetItem chunks of 100 keys, retrying
// unprocessed keys.
func (r *NodeRepository) GetMany(ctx context.Context, ids []string) (map[string]*entities.Node, error) {
	result := make(map[string]*entities.Node, len(ids))
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	for _, batch := range chunk(unique, maxBatchGetKeys) {
		keys := make([]map[string]types.AttributeValue, 0, len(batch))
		for _, id := range batch {
			keys = append(keys, nodeKey(id))
		}
		request := map[string]types.KeysAndAttributes{
			r.tableName: {Keys: keys, ConsistentRead: aws.Bool(true)},
		}

		for attempt := 0; len(request) > 0; attempt++ {
			if attempt > 5 {
				return nil, pkgerrors.NewUnavailableError("dynamodb")
			}
			out, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: request})
			if err != nil {
				return nil, mapError("BatchGetNodes", err)
			}
			for _, item := range out.Responses[r.tableName] {
				n, err := unmarshalNode(item)
				if err != nil {
					return nil, err
				}
				result[n.ID] = n
			}
			request = out.UnprocessedKeys
		}
	}

	r.logger.Debug("Nodes fetched",
		zap.Int("requested", len(unique)),
		zap.Int("found", len(result)),
	)
	return result, nil
}

// Save puts a single node.
func (r *NodeRepository) Save(ctx context.Context, node *entities.Node) error {
	item, err := marshalNode(node)
	if err != nil {
		return err
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	}); err != nil {
		return mapError("SaveNode", err)
	}
	return nil
}

// List returns a page of matching nodes ordered by ID. A node type filter
// queries the NodeTypeIndex; otherwise the table is scanned.
func (r *NodeRepository) List(ctx context.Context, filter ports.NodeFilter) ([]*entities.Node, int, error) {
	cond := expression.Name("deleted").Equal(expression.Value(filter.Deleted))
	if !filter.Deleted {
		cond = expression.Or(cond, expression.Name("deleted").AttributeNotExists())
	}
	if filter.Root != "" {
		cond = cond.And(expression.Name("root").Equal(expression.Value(filter.Root)))
	}

	var matches []*entities.Node
	collect := func(items []map[string]types.AttributeValue) error {
		for _, item := range items {
			n, err := unmarshalNode(item)
			if err != nil {
				return err
			}
			matches = append(matches, n)
		}
		return nil
	}

	if filter.NodeType != "" {
		expr, err := expression.NewBuilder().
			WithKeyCondition(expression.Key("nodeType").Equal(expression.Value(filter.NodeType))).
			WithFilter(cond).
			Build()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to build expression: %w", err)
		}
		p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String(r.nodeTypeIndex),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return nil, 0, mapError("ListNodes", err)
			}
			if err := collect(page.Items); err != nil {
				return nil, 0, err
			}
		}
	} else {
		expr, err := expression.NewBuilder().WithFilter(cond).Build()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to build expression: %w", err)
		}
		p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
			TableName:                 aws.String(r.tableName),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return nil, 0, mapError("ListNodes", err)
			}
			if err := collect(page.Items); err != nil {
				return nil, 0, err
			}
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	total := len(matches)
	if filter.Offset >= total {
		return []*entities.Node{}, total, nil
	}
	end := total
	if filter.Limit > 0 && filter.Offset+filter.Limit < total {
		end = filter.Offset + filter.Limit
	}
	return matches[filter.Offset:end], total, nil
}
