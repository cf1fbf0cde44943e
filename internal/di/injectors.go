//go:build wireinject
// +build wireinject

package di

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/borkya1/smart-gallery/internal"
	"github.com/borkya1/smart-gallery/internal/controllers"
	"github.com/borkya1/smart-gallery/internal/identity"
	"github.com/borkya1/smart-gallery/internal/mailer"
	"github.com/borkya1/smart-gallery/internal/providers"
	"github.com/borkya1/smart-gallery/internal/services"
	"github.com/borkya1/smart-gallery/internal/store"
	"github.com/borkya1/smart-gallery/internal/structures"
	"github.com/borkya1/smart-gallery/internal/vision"
	wire "github.com/google/wire"
)

var storeSet = wire.NewSet(
	providers.NewAwsConfig,
	providers.NewDynamoClient,
	providers.NewS3Client,
	wire.Bind(new(store.DynamoAPI), new(*dynamodb.Client)),
	wire.Bind(new(store.S3API), new(*s3.Client)),

	store.NewDynamoLedgerStore,
	store.NewDynamoGalleryStore,
	store.NewDynamoOtpStore,
	store.NewS3BlobStore,
	wire.Bind(new(store.LedgerStoreInterface), new(*store.DynamoLedgerStore)),
	wire.Bind(new(store.GalleryStoreInterface), new(*store.DynamoGalleryStore)),
	wire.Bind(new(store.OtpStoreInterface), new(*store.DynamoOtpStore)),
	wire.Bind(new(store.BlobStoreInterface), new(*store.S3BlobStore)),
	store.NewReadinessChecks,
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewInstrumentedImageCache,

		storeSet,
		identity.NewJwksVerifier,
		identity.NewResolver,
		vision.NewAnalyzer,
		mailer.NewMailer,

		services.NewUsageLedger,
		services.NewGalleryService,
		services.NewUploadService,
		services.NewOtpService,

		controllers.NewApiController,
		controllers.NewAuthController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewHandler,
		internal.NewApp,
	)

	return nil, nil
}
