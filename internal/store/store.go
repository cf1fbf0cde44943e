// Package store holds the DynamoDB and S3 backed persistence of the gallery:
// usage counters, image records, one-time codes and image bytes.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/borkya1/smart-gallery/internal/models"
)

// DynamoAPI is the subset of *dynamodb.Client the stores use.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// ReadinessCheck is implemented by every backing resource reported on /health.
type ReadinessCheck interface {
	Name() string
	IsReady(ctx context.Context) error
}

func describeTable(ctx context.Context, client DynamoAPI, table string) error {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	})
	return err
}

func stringKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

func mapConditionError(err error) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return models.ErrConditionFailed
	}
	return err
}

// NewReadinessChecks lists the resources /health probes.
func NewReadinessChecks(ledger *DynamoLedgerStore, gallery *DynamoGalleryStore, otp *DynamoOtpStore, blobs *S3BlobStore) []ReadinessCheck {
	return []ReadinessCheck{ledger, gallery, otp, blobs}
}
