// Package dynamodb implements the persistence ports on Amazon DynamoDB.
package dynamodb

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/smithy-go"

	pkgerrors "ontology-backend/pkg/errors"
)

// DynamoDB API limits.
const (
	maxBatchGetKeys     = 100
	maxTransactionItems = 100
)

// Client is the subset of the DynamoDB API used by the repositories.
// *dynamodb.Client satisfies it.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchGetItem(ctx context.Context, params *dynamodb.BatchGetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchGetItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

// mapError converts DynamoDB API errors into application errors.
func mapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if pkgerrors.IsAppError(err) {
		return err
	}

	var ae smithy.APIError
	if !errors.As(err, &ae) {
		return pkgerrors.NewDatabaseError(operation, err)
	}

	switch ae.ErrorCode() {
	case "ConditionalCheckFailedException", "TransactionConflictException":
		return pkgerrors.NewConflictError("the item was modified by another operation").
			WithCode(pkgerrors.CodeWriteConflict).
			WithCause(err)
	case "TransactionCanceledException":
		return pkgerrors.NewConflictError("transaction was cancelled").
			WithCode(pkgerrors.CodeWriteConflict).
			WithDetail("reason", ae.ErrorMessage()).
			WithCause(err)
	case "ProvisionedThroughputExceededException", "RequestLimitExceeded", "ThrottlingException":
		return pkgerrors.NewRateLimitError("database throughput exceeded, try again").
			WithCode(pkgerrors.CodeThrottled).
			WithCause(err)
	case "ServiceUnavailable", "InternalServerError":
		return pkgerrors.NewUnavailableError("dynamodb").WithCause(err)
	case "ValidationException":
		return pkgerrors.NewDatabaseError(operation, err).WithDetail("reason", ae.ErrorMessage())
	default:
		return pkgerrors.NewDatabaseError(operation, err)
	}
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for size < len(items) {
		items, out = items[size:], append(out, items[:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
