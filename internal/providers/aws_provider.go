package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/borkya1/smart-gallery/internal/structures"
)

func NewAwsConfig(conf *structures.Config, logger Logger) (aws.Config, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(conf.Aws.Region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}
	if conf.Aws.Endpoint != "" {
		logger.Infof(TypeApp, "Using AWS endpoint override %s", conf.Aws.Endpoint)
	}
	return cfg, nil
}

func NewDynamoClient(cfg aws.Config, conf *structures.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if conf.Aws.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Aws.Endpoint)
		}
	})
}

func NewS3Client(cfg aws.Config, conf *structures.Config) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if conf.Aws.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Aws.Endpoint)
			o.UsePathStyle = true
		}
	})
}
