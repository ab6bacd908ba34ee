package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ontology-backend/application/ports"
	pkgerrors "ontology-backend/pkg/errors"
)

// lockRecord is the item holding a lock. ExpiresAt is in Unix milliseconds;
// TTL lets DynamoDB remove abandoned records.
type lockRecord struct {
	PK         string `dynamodbav:"PK"`
	LockID     string `dynamodbav:"LockID"`
	Owner      string `dynamodbav:"Owner"`
	AcquiredAt string `dynamodbav:"AcquiredAt"`
	ExpiresAt  int64  `dynamodbav:"ExpiresAt"`
	TTL        int64  `dynamodbav:"TTL"`
}

var errLockHeld = errors.New("lock already held")

// DistributedLock provides distributed locking using DynamoDB conditional writes
type DistributedLock struct {
	client    Client
	tableName string
	retry     time.Duration
	maxRetry  time.Duration
	logger    *zap.Logger
}

var _ ports.Locker = (*DistributedLock)(nil)

// NewDistributedLock creates a new distributed lock instance
func NewDistributedLock(client Client, tableName string, logger *zap.Logger) *DistributedLock {
	return &DistributedLock{
		client:    client,
		tableName: tableName,
		retry:     100 * time.Millisecond,
		maxRetry:  time.Second,
		logger:    logger,
	}
}

func lockKey(resource string) string {
	return "LOCK#" + resource
}

func (dl *DistributedLock) tryAcquire(ctx context.Context, resource, owner string, ttl time.Duration) (*Lock, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	record := lockRecord{
		PK:         lockKey(resource),
		LockID:     uuid.New().String(),
		Owner:      owner,
		AcquiredAt: now.UTC().Format(time.RFC3339),
		ExpiresAt:  expiresAt.UnixMilli(),
		TTL:        expiresAt.Add(time.Hour).Unix(),
	}
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lock: %w", err)
	}

	cond := expression.Or(
		expression.Name("PK").AttributeNotExists(),
		expression.Name("ExpiresAt").LessThan(expression.Value(now.UnixMilli())),
	)
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = dl.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(dl.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, errLockHeld
		}
		return nil, mapError("AcquireLock", err)
	}

	dl.logger.Debug("Lock acquired",
		zap.String("resource", resource),
		zap.String("lockID", record.LockID),
		zap.String("owner", owner),
		zap.Duration("ttl", ttl),
	)
	return &Lock{dl: dl, resource: resource, lockID: record.LockID, owner: owner, expiresAt: expiresAt}, nil
}

// Acquire takes resource for owner, retrying with backoff until timeout.
// Contention past the timeout fails with LOCK_TIMEOUT.
func (dl *DistributedLock) Acquire(ctx context.Context, resource, owner string, ttl, timeout time.Duration) (ports.Lock, error) {
	deadline := time.Now().Add(timeout)
	wait := dl.retry

	for {
		lock, err := dl.tryAcquire(ctx, resource, owner, ttl)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, errLockHeld) {
			return nil, err
		}
		if time.Now().Add(wait).After(deadline) {
			dl.logger.Warn("Timed out waiting for lock",
				zap.String("resource", resource),
				zap.String("owner", owner),
				zap.Duration("timeout", timeout),
			)
			return nil, pkgerrors.LockTimeout(resource)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		if wait < dl.maxRetry {
			wait = time.Duration(float64(wait) * 1.5)
		}
	}
}

func (dl *DistributedLock) release(ctx context.Context, l *Lock) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("LockID").Equal(expression.Value(l.lockID))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = dl.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(dl.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: lockKey(l.resource)},
		},
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			dl.logger.Warn("Lock already released or taken over",
				zap.String("resource", l.resource),
				zap.String("lockID", l.lockID),
				zap.String("owner", l.owner),
			)
			return nil
		}
		return mapError("ReleaseLock", err)
	}

	dl.logger.Debug("Lock released",
		zap.String("resource", l.resource),
		zap.String("lockID", l.lockID),
	)
	return nil
}

// Lock represents an acquired distributed lock
type Lock struct {
	dl        *DistributedLock
	resource  string
	lockID    string
	owner     string
	expiresAt time.Time
}

// Release releases the lock
func (l *Lock) Release(ctx context.Context) error {
	return l.dl.release(ctx, l)
}

// IsExpired checks if the lock has expired
func (l *Lock) IsExpired() bool {
	return time.Now().After(l.expiresAt)
}
