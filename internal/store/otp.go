package store

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/borkya1/smart-gallery/internal/models"
	"github.com/borkya1/smart-gallery/internal/structures"
)

// OtpStoreInterface keeps one pending code per email; Put overwrites.
type OtpStoreInterface interface {
	Put(ctx context.Context, code models.OtpCode) error
	Get(ctx context.Context, email string) (*models.OtpCode, error)
}

// DynamoOtpStore relies on the table's TTL on expires_at to purge old codes.
type DynamoOtpStore struct {
	client    DynamoAPI
	tableName string
}

func NewDynamoOtpStore(client DynamoAPI, conf *structures.Config) *DynamoOtpStore {
	return &DynamoOtpStore{
		client:    client,
		tableName: conf.Tables.OtpCodes,
	}
}

func (s *DynamoOtpStore) Name() string {
	return "OtpStore[" + s.tableName + "]"
}

func (s *DynamoOtpStore) IsReady(ctx context.Context) error {
	return describeTable(ctx, s.client, s.tableName)
}

func (s *DynamoOtpStore) Put(ctx context.Context, code models.OtpCode) error {
	item, err := attributevalue.MarshalMap(code)
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	return err
}

func (s *DynamoOtpStore) Get(ctx context.Context, email string) (*models.OtpCode, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            stringKey("email", email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, models.ErrNotFound
	}

	var code models.OtpCode
	if err = attributevalue.UnmarshalMap(out.Item, &code); err != nil {
		return nil, err
	}
	return &code, nil
}
