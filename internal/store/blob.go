package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/borkya1/smart-gallery/internal/models"
	"github.com/borkya1/smart-gallery/internal/structures"
)

// BlobStoreInterface stores image bytes. Put returns the canonical blob key
// for the record; Get returns models.ErrNotFound for unknown keys.
type BlobStoreInterface interface {
	Key(filename string) string
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) (*models.Blob, error)
}

// S3API is the subset of *s3.Client the blob store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type S3BlobStore struct {
	client S3API
	bucket string
	prefix string
}

func NewS3BlobStore(client S3API, conf *structures.Config) *S3BlobStore {
	return &S3BlobStore{
		client: client,
		bucket: conf.Storage.Bucket,
		prefix: conf.Storage.Prefix,
	}
}

func (s *S3BlobStore) Name() string {
	return "BlobStore[" + s.bucket + "]"
}

func (s *S3BlobStore) IsReady(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}

// Key maps a served filename to its object key, e.g. "abc.jpg" -> "images/abc.jpg".
func (s *S3BlobStore) Key(filename string) string {
	return path.Join(s.prefix, filename)
}

func (s *S3BlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *S3BlobStore) Get(ctx context.Context, key string) (*models.Blob, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}
	return &models.Blob{Data: data, ContentType: aws.ToString(out.ContentType)}, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
