package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/borkya1/smart-gallery/internal/models"
	"github.com/borkya1/smart-gallery/internal/structures"
)

// LedgerStoreInterface persists usage counters. Get methods return
// models.ErrNotFound for unknown identities. Increments with a positive
// ceiling are conditional and return models.ErrConditionFailed when the
// stored counter already reached it.
type LedgerStoreInterface interface {
	GetGuestUsage(ctx context.Context, address string) (*models.GuestUsage, error)
	IncrementGuestUsage(ctx context.Context, address string, ceiling int) (int, error)
	GetUserUsage(ctx context.Context, userID string) (*models.UserUsage, error)
	ResetUserUsage(ctx context.Context, userID, date string, conditional bool) error
	IncrementUserUsage(ctx context.Context, userID, date string, ceiling int) (int, error)
}

const (
	attrAddress    = "address"
	attrCount      = "count"
	attrUserID     = "user_id"
	attrLastUpload = "last_upload_date"
	attrDailyCount = "daily_count"
)

type DynamoLedgerStore struct {
	client     DynamoAPI
	guestTable string
	userTable  string
}

func NewDynamoLedgerStore(client DynamoAPI, conf *structures.Config) *DynamoLedgerStore {
	return &DynamoLedgerStore{
		client:     client,
		guestTable: conf.Tables.GuestUsage,
		userTable:  conf.Tables.UserUsage,
	}
}

func (s *DynamoLedgerStore) Name() string {
	return "LedgerStore[" + s.guestTable + "," + s.userTable + "]"
}

func (s *DynamoLedgerStore) IsReady(ctx context.Context) error {
	if err := describeTable(ctx, s.client, s.guestTable); err != nil {
		return err
	}
	return describeTable(ctx, s.client, s.userTable)
}

func (s *DynamoLedgerStore) GetGuestUsage(ctx context.Context, address string) (*models.GuestUsage, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.guestTable),
		Key:            stringKey(attrAddress, address),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, models.ErrNotFound
	}

	var usage models.GuestUsage
	if err = attributevalue.UnmarshalMap(out.Item, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

func (s *DynamoLedgerStore) IncrementGuestUsage(ctx context.Context, address string, ceiling int) (int, error) {
	builder := expression.NewBuilder().
		WithUpdate(expression.Add(expression.Name(attrCount), expression.Value(1)))
	if ceiling > 0 {
		builder = builder.WithCondition(expression.Or(
			expression.AttributeNotExists(expression.Name(attrCount)),
			expression.Name(attrCount).LessThan(expression.Value(ceiling)),
		))
	}

	out, err := s.update(ctx, s.guestTable, stringKey(attrAddress, address), builder)
	if err != nil {
		return 0, err
	}

	var usage models.GuestUsage
	if err = attributevalue.UnmarshalMap(out.Attributes, &usage); err != nil {
		return 0, err
	}
	return usage.Count, nil
}

func (s *DynamoLedgerStore) GetUserUsage(ctx context.Context, userID string) (*models.UserUsage, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.userTable),
		Key:            stringKey(attrUserID, userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, models.ErrNotFound
	}

	var usage models.UserUsage
	if err = attributevalue.UnmarshalMap(out.Item, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

// ResetUserUsage starts a new day at one upload; other user attributes are kept.
// A conditional reset fails with models.ErrConditionFailed when the stored day
// is already date.
func (s *DynamoLedgerStore) ResetUserUsage(ctx context.Context, userID, date string, conditional bool) error {
	builder := expression.NewBuilder().WithUpdate(
		expression.Set(expression.Name(attrLastUpload), expression.Value(date)).
			Set(expression.Name(attrDailyCount), expression.Value(1)),
	)
	if conditional {
		builder = builder.WithCondition(expression.Or(
			expression.AttributeNotExists(expression.Name(attrLastUpload)),
			expression.Name(attrLastUpload).NotEqual(expression.Value(date)),
		))
	}
	_, err := s.update(ctx, s.userTable, stringKey(attrUserID, userID), builder)
	return err
}

func (s *DynamoLedgerStore) IncrementUserUsage(ctx context.Context, userID, date string, ceiling int) (int, error) {
	builder := expression.NewBuilder().WithUpdate(
		expression.Add(expression.Name(attrDailyCount), expression.Value(1)).
			Set(expression.Name(attrLastUpload), expression.Value(date)),
	)
	if ceiling > 0 {
		builder = builder.WithCondition(expression.And(
			expression.Name(attrLastUpload).Equal(expression.Value(date)),
			expression.Name(attrDailyCount).LessThan(expression.Value(ceiling)),
		))
	}

	out, err := s.update(ctx, s.userTable, stringKey(attrUserID, userID), builder)
	if err != nil {
		return 0, err
	}

	var usage models.UserUsage
	if err = attributevalue.UnmarshalMap(out.Attributes, &usage); err != nil {
		return 0, err
	}
	return usage.DailyCount, nil
}

func (s *DynamoLedgerStore) update(ctx context.Context, table string, key map[string]types.AttributeValue, builder expression.Builder) (*dynamodb.UpdateItemOutput, error) {
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build update expression: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return nil, mapConditionError(err)
	}
	return out, nil
}
