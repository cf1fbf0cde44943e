package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/borkya1/smart-gallery/internal/models"
	"github.com/borkya1/smart-gallery/internal/structures"
)

// GalleryStoreInterface persists image records. ListByOwner returns the
// owner's records newest first; limit <= 0 returns all of them.
type GalleryStoreInterface interface {
	Put(ctx context.Context, rec models.GalleryRecord) error
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.GalleryRecord, error)
}

// galleryItem is the table layout. Guest uploads carry no user_id and so
// stay out of the sparse owner index. Older items hold an absolute storage
// url instead of blob_name.
type galleryItem struct {
	ID         string   `dynamodbav:"id"`
	Filename   string   `dynamodbav:"filename"`
	BlobName   string   `dynamodbav:"blob_name,omitempty"`
	URL        string   `dynamodbav:"url,omitempty"`
	Tags       []string `dynamodbav:"tags"`
	CreatedAt  int64    `dynamodbav:"created_at"`
	UserID     string   `dynamodbav:"user_id,omitempty"`
	UploadedBy string   `dynamodbav:"uploaded_by"`
}

func toGalleryItem(rec models.GalleryRecord) galleryItem {
	item := galleryItem{
		ID:         rec.ID,
		Filename:   rec.Filename,
		Tags:       rec.Tags,
		CreatedAt:  rec.CreatedAt.UnixNano(),
		UserID:     rec.OwnerID,
		UploadedBy: rec.UploadedBy,
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	switch rec.Reference.Kind {
	case models.ReferenceCanonical:
		item.BlobName = rec.Reference.Value
	case models.ReferenceLegacy:
		item.URL = rec.Reference.Value
	}
	return item
}

func (item galleryItem) record() models.GalleryRecord {
	rec := models.GalleryRecord{
		ID:         item.ID,
		Filename:   item.Filename,
		Tags:       item.Tags,
		CreatedAt:  time.Unix(0, item.CreatedAt).UTC(),
		OwnerID:    item.UserID,
		UploadedBy: item.UploadedBy,
	}
	if rec.Tags == nil {
		rec.Tags = []string{}
	}
	switch {
	case item.BlobName != "":
		rec.Reference = models.CanonicalReference(item.BlobName)
	case item.URL != "":
		rec.Reference = models.LegacyReference(item.URL)
	}
	return rec
}

type DynamoGalleryStore struct {
	client    DynamoAPI
	tableName string
	ownerIdx  string
}

func NewDynamoGalleryStore(client DynamoAPI, conf *structures.Config) *DynamoGalleryStore {
	return &DynamoGalleryStore{
		client:    client,
		tableName: conf.Tables.Images,
		ownerIdx:  conf.Tables.ImagesByUser,
	}
}

func (s *DynamoGalleryStore) Name() string {
	return "GalleryStore[" + s.tableName + "]"
}

func (s *DynamoGalleryStore) IsReady(ctx context.Context) error {
	return describeTable(ctx, s.client, s.tableName)
}

func (s *DynamoGalleryStore) Put(ctx context.Context, rec models.GalleryRecord) error {
	item, err := attributevalue.MarshalMap(toGalleryItem(rec))
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	return mapConditionError(err)
}

func (s *DynamoGalleryStore) ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.GalleryRecord, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("user_id").Equal(expression.Value(ownerID))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(s.ownerIdx),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(int32(limit))
	}

	records := make([]models.GalleryRecord, 0)
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}

		var items []galleryItem
		if err = attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, err
		}
		for _, item := range items {
			records = append(records, item.record())
			if limit > 0 && len(records) == limit {
				return records, nil
			}
		}
	}
	return records, nil
}
