package store

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/borkya1/smart-gallery/internal/models"
	"github.com/borkya1/smart-gallery/internal/structures"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo records requests and answers from canned responses.
type fakeDynamo struct {
	getItem  map[string]types.AttributeValue
	updated  map[string]types.AttributeValue
	pages    [][]map[string]types.AttributeValue
	err      error
	puts     []*dynamodb.PutItemInput
	updates  []*dynamodb.UpdateItemInput
	queries  []*dynamodb.QueryInput
	describe []string
}

func (f *fakeDynamo) GetItem(_ context.Context, _ *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.getItem}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.UpdateItemOutput{Attributes: f.updated}, nil
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries = append(f.queries, in)
	if f.err != nil {
		return nil, f.err
	}
	page := len(f.queries) - 1
	if page >= len(f.pages) {
		return &dynamodb.QueryOutput{}, nil
	}
	out := &dynamodb.QueryOutput{Items: f.pages[page]}
	if page < len(f.pages)-1 {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: "page-" + strconv.Itoa(page)},
		}
	}
	return out, nil
}

func (f *fakeDynamo) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.describe = append(f.describe, *in.TableName)
	return &dynamodb.DescribeTableOutput{}, f.err
}

func testConfig() *structures.Config {
	return &structures.Config{
		Storage: structures.StorageConfig{Bucket: "bucket", Prefix: "images"},
		Tables: structures.TablesConfig{
			Images:       "images",
			ImagesByUser: "user_id-created_at-index",
			GuestUsage:   "guest_usage",
			UserUsage:    "users",
			OtpCodes:     "otp_codes",
		},
	}
}

func marshal(t *testing.T, v interface{}) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(v)
	require.NoError(t, err)
	return av
}

// --- gallery ---

func TestGalleryItem_CanonicalRoundTrip(t *testing.T) {
	rec := models.GalleryRecord{
		ID:         "abc",
		Filename:   "beach.jpg",
		Reference:  models.CanonicalReference("images/abc.jpg"),
		Tags:       []string{"beach"},
		CreatedAt:  time.Date(2026, 3, 14, 12, 0, 0, 123, time.UTC),
		OwnerID:    "uid-1",
		UploadedBy: "a@example.com",
	}

	assert.Equal(t, rec, toGalleryItem(rec).record())
}

func TestGalleryItem_LegacyURL(t *testing.T) {
	item := galleryItem{ID: "old", URL: "https://storage.googleapis.com/b/images/old.png"}

	rec := item.record()

	assert.Equal(t, models.LegacyReference("https://storage.googleapis.com/b/images/old.png"), rec.Reference)
	assert.NotNil(t, rec.Tags)
}

func TestGalleryStore_PutGuestRecordOmitsOwner(t *testing.T) {
	client := &fakeDynamo{}
	s := NewDynamoGalleryStore(client, testConfig())

	err := s.Put(context.Background(), models.GalleryRecord{ID: "g1", Reference: models.CanonicalReference("images/g1.jpg")})

	require.NoError(t, err)
	require.Len(t, client.puts, 1)
	item := client.puts[0].Item
	assert.NotContains(t, item, "user_id")
	assert.NotContains(t, item, "url")
	assert.Contains(t, item, "tags")
	assert.Equal(t, "attribute_not_exists(id)", *client.puts[0].ConditionExpression)
}

func TestGalleryStore_PutDuplicateID(t *testing.T) {
	client := &fakeDynamo{err: &types.ConditionalCheckFailedException{}}
	s := NewDynamoGalleryStore(client, testConfig())

	err := s.Put(context.Background(), models.GalleryRecord{ID: "dup"})

	assert.ErrorIs(t, err, models.ErrConditionFailed)
}

func TestGalleryStore_ListByOwnerStopsAtLimit(t *testing.T) {
	page := func(ids ...string) []map[string]types.AttributeValue {
		var items []map[string]types.AttributeValue
		for _, id := range ids {
			items = append(items, marshal(t, galleryItem{ID: id, UserID: "uid-1", BlobName: "images/" + id + ".jpg"}))
		}
		return items
	}
	client := &fakeDynamo{pages: [][]map[string]types.AttributeValue{page("a", "b"), page("c", "d"), page("e")}}
	s := NewDynamoGalleryStore(client, testConfig())

	got, err := s.ListByOwner(context.Background(), "uid-1", 3)

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[2].ID)
	assert.Len(t, client.queries, 2)

	q := client.queries[0]
	assert.Equal(t, "user_id-created_at-index", *q.IndexName)
	assert.False(t, *q.ScanIndexForward)
	assert.Equal(t, int32(3), *q.Limit)
}

func TestGalleryStore_ListByOwnerAllPages(t *testing.T) {
	client := &fakeDynamo{pages: [][]map[string]types.AttributeValue{
		{marshal(t, galleryItem{ID: "a", UserID: "uid-1"})},
		{marshal(t, galleryItem{ID: "b", UserID: "uid-1"})},
	}}
	s := NewDynamoGalleryStore(client, testConfig())

	got, err := s.ListByOwner(context.Background(), "uid-1", 0)

	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Nil(t, client.queries[0].Limit)
}

// --- ledger ---

func TestLedgerStore_GuestNotFound(t *testing.T) {
	s := NewDynamoLedgerStore(&fakeDynamo{}, testConfig())

	_, err := s.GetGuestUsage(context.Background(), "203.0.113.7")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestLedgerStore_GetGuestUsage(t *testing.T) {
	client := &fakeDynamo{getItem: marshal(t, models.GuestUsage{Address: "203.0.113.7", Count: 4})}
	s := NewDynamoLedgerStore(client, testConfig())

	usage, err := s.GetGuestUsage(context.Background(), "203.0.113.7")

	require.NoError(t, err)
	assert.Equal(t, 4, usage.Count)
}

func TestLedgerStore_IncrementGuestRelaxed(t *testing.T) {
	client := &fakeDynamo{updated: map[string]types.AttributeValue{"count": &types.AttributeValueMemberN{Value: "5"}}}
	s := NewDynamoLedgerStore(client, testConfig())

	count, err := s.IncrementGuestUsage(context.Background(), "203.0.113.7", 0)

	require.NoError(t, err)
	assert.Equal(t, 5, count)
	require.Len(t, client.updates, 1)
	assert.Equal(t, "guest_usage", *client.updates[0].TableName)
	assert.Contains(t, *client.updates[0].UpdateExpression, "ADD")
	assert.Nil(t, client.updates[0].ConditionExpression)
}

func TestLedgerStore_IncrementGuestStrict(t *testing.T) {
	client := &fakeDynamo{err: &types.ConditionalCheckFailedException{}}
	s := NewDynamoLedgerStore(client, testConfig())

	_, err := s.IncrementGuestUsage(context.Background(), "203.0.113.7", 10)

	assert.ErrorIs(t, err, models.ErrConditionFailed)
	require.Len(t, client.updates, 1)
	assert.NotNil(t, client.updates[0].ConditionExpression)
}

func TestLedgerStore_ResetUserUsage(t *testing.T) {
	client := &fakeDynamo{}
	s := NewDynamoLedgerStore(client, testConfig())

	require.NoError(t, s.ResetUserUsage(context.Background(), "uid-1", "2026-03-15", false))

	require.Len(t, client.updates, 1)
	u := client.updates[0]
	assert.Equal(t, "users", *u.TableName)
	assert.Contains(t, *u.UpdateExpression, "SET")
	assert.Contains(t, u.ExpressionAttributeValues, ":0")
	assert.Nil(t, u.ConditionExpression)
}

func TestLedgerStore_ResetUserUsageConditional(t *testing.T) {
	client := &fakeDynamo{err: &types.ConditionalCheckFailedException{}}
	s := NewDynamoLedgerStore(client, testConfig())

	err := s.ResetUserUsage(context.Background(), "uid-1", "2026-03-15", true)

	assert.ErrorIs(t, err, models.ErrConditionFailed)
	require.Len(t, client.updates, 1)
	u := client.updates[0]
	require.NotNil(t, u.ConditionExpression)
	assert.Contains(t, *u.ConditionExpression, "attribute_not_exists")
	assert.Contains(t, *u.ConditionExpression, "<>")
}

func TestLedgerStore_IncrementUserUsage(t *testing.T) {
	client := &fakeDynamo{updated: map[string]types.AttributeValue{
		"daily_count":      &types.AttributeValueMemberN{Value: "7"},
		"last_upload_date": &types.AttributeValueMemberS{Value: "2026-03-15"},
	}}
	s := NewDynamoLedgerStore(client, testConfig())

	count, err := s.IncrementUserUsage(context.Background(), "uid-1", "2026-03-15", 25)

	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.NotNil(t, client.updates[0].ConditionExpression)
}

func TestLedgerStore_IsReadyChecksBothTables(t *testing.T) {
	client := &fakeDynamo{}
	s := NewDynamoLedgerStore(client, testConfig())

	require.NoError(t, s.IsReady(context.Background()))
	assert.Equal(t, []string{"guest_usage", "users"}, client.describe)
}

// --- otp ---

func TestOtpStore_RoundTrip(t *testing.T) {
	expires := time.Date(2026, 3, 14, 12, 10, 0, 0, time.UTC)
	code := models.OtpCode{Email: "a@example.com", Code: "123456", ExpiresAt: expires, CreatedAt: expires.Add(-10 * time.Minute)}
	client := &fakeDynamo{}
	s := NewDynamoOtpStore(client, testConfig())

	require.NoError(t, s.Put(context.Background(), code))
	require.Len(t, client.puts, 1)
	assert.IsType(t, &types.AttributeValueMemberN{}, client.puts[0].Item["expires_at"])

	client.getItem = client.puts[0].Item
	got, err := s.Get(context.Background(), "a@example.com")

	require.NoError(t, err)
	assert.Equal(t, "123456", got.Code)
	assert.True(t, got.ExpiresAt.Equal(expires))
}

func TestOtpStore_NotFound(t *testing.T) {
	s := NewDynamoOtpStore(&fakeDynamo{}, testConfig())

	_, err := s.Get(context.Background(), "a@example.com")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestOtpStore_Failure(t *testing.T) {
	s := NewDynamoOtpStore(&fakeDynamo{err: errors.New("boom")}, testConfig())

	_, err := s.Get(context.Background(), "a@example.com")

	assert.EqualError(t, err, "boom")
}

func TestNewReadinessChecks(t *testing.T) {
	conf := testConfig()
	client := &fakeDynamo{}
	checks := NewReadinessChecks(
		NewDynamoLedgerStore(client, conf),
		NewDynamoGalleryStore(client, conf),
		NewDynamoOtpStore(client, conf),
		NewS3BlobStore(&fakeS3{}, conf),
	)

	names := make([]string, 0, len(checks))
	for _, c := range checks {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"LedgerStore[guest_usage,users]", "GalleryStore[images]", "OtpStore[otp_codes]", "BlobStore[bucket]"}, names)
}
