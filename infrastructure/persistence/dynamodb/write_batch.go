package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"ontology-backend/application/ports"
	"ontology-backend/domain/config"
	"ontology-backend/domain/core/entities"
)

// WriteBatch commits node snapshots as a sequence of TransactWriteItems
// calls. Writes are grouped into batches of cfg.BatchSize and each batch
// into transactions of cfg.TransactionSize items. Every transaction is
// atomic on its own; a failure stops the commit and leaves earlier
// transactions applied.
type WriteBatch struct {
	client    Client
	tableName string
	cfg       *config.DomainConfig
	logger    *zap.Logger
}

var _ ports.WriteBatch = (*WriteBatch)(nil)

// NewWriteBatch creates a new chunked committer
func NewWriteBatch(client Client, tableName string, cfg *config.DomainConfig, logger *zap.Logger) *WriteBatch {
	return &WriteBatch{client: client, tableName: tableName, cfg: cfg, logger: logger}
}

func (w *WriteBatch) sizes() (batch, tx int) {
	batch, tx = w.cfg.BatchSize, w.cfg.TransactionSize
	if tx <= 0 || tx > maxTransactionItems {
		tx = maxTransactionItems
	}
	if batch < tx {
		batch = tx
	}
	return batch, tx
}

// Commit writes every node.
func (w *WriteBatch) Commit(ctx context.Context, nodes []*entities.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	batchSize, txSize := w.sizes()

	written := 0
	for b, batch := range chunk(nodes, batchSize) {
		for _, group := range chunk(batch, txSize) {
			items := make([]types.TransactWriteItem, 0, len(group))
			for _, n := range group {
				item, err := marshalNode(n)
				if err != nil {
					return err
				}
				items = append(items, types.TransactWriteItem{
					Put: &types.Put{TableName: aws.String(w.tableName), Item: item},
				})
			}
			if _, err := w.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
				w.logger.Error("Node transaction failed",
					zap.Int("batch", b),
					zap.Int("written", written),
					zap.Int("pending", len(nodes)-written),
					zap.Error(err),
				)
				return mapError("CommitNodes", err)
			}
			written += len(group)
		}
		w.logger.Debug("Node batch committed",
			zap.Int("batch", b),
			zap.Int("size", len(batch)),
		)
	}
	return nil
}
