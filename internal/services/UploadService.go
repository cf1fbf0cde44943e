package services

import (
	"context"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/borkya1/smart-gallery/internal/models"
	"github.com/borkya1/smart-gallery/internal/providers"
	"github.com/borkya1/smart-gallery/internal/store"
	"github.com/borkya1/smart-gallery/internal/structures"
	"github.com/borkya1/smart-gallery/internal/vision"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const fallbackExtension = "jpg"

type UploadServiceInterface interface {
	Upload(ctx context.Context, identity models.Identity, upload models.Upload) (*models.UploadResult, error)
}

type UploadService struct {
	ledger       UsageLedgerInterface
	blobs        store.BlobStoreInterface
	records      store.GalleryStoreInterface
	analyzer     vision.AnalyzerInterface
	logger       providers.Logger
	metrics      providers.MetricsProviderInterface
	legacyMarker string
	now          func() time.Time
	newID        func() string
}

func NewUploadService(ledger UsageLedgerInterface, blobs store.BlobStoreInterface, records store.GalleryStoreInterface, analyzer vision.AnalyzerInterface, conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) UploadServiceInterface {
	return &UploadService{
		ledger:       ledger,
		blobs:        blobs,
		records:      records,
		analyzer:     analyzer,
		logger:       logger,
		metrics:      metrics,
		legacyMarker: conf.Storage.LegacyHostMarker,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// Upload consumes one unit of the identity's allowance, stores the image and
// its tags, and records it. Quota is not refunded when a later step fails.
func (us *UploadService) Upload(ctx context.Context, identity models.Identity, upload models.Upload) (*models.UploadResult, error) {
	if upload.Filename == "" {
		return nil, models.NewValidationError("file", "filename is required")
	}
	if len(upload.Data) == 0 {
		return nil, models.NewValidationError("file", "file is empty")
	}

	if _, err := us.ledger.CheckAndConsume(ctx, identity); err != nil {
		return nil, err
	}

	id := us.newID()
	ext := extension(upload.Filename, upload.ContentType)
	contentType := upload.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension("." + ext)
	}

	start := time.Now()
	var (
		blobRef string
		tags    []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		blobRef, err = us.blobs.Put(gctx, us.blobs.Key(id+"."+ext), upload.Data, contentType)
		return err
	})
	g.Go(func() error {
		tags = us.analyzer.Analyze(gctx, upload.Data, contentType)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, models.NewInfrastructureError("store image", err)
	}
	us.metrics.ObserveUploadDuration(time.Since(start))
	if tags == nil {
		tags = []string{}
	}

	rec := models.GalleryRecord{
		ID:         id,
		Filename:   upload.Filename,
		Reference:  models.CanonicalReference(blobRef),
		Tags:       tags,
		CreatedAt:  us.now().UTC(),
		OwnerID:    identity.OwnerID(),
		UploadedBy: identity.Label,
	}
	if err := us.records.Put(ctx, rec); err != nil {
		return nil, models.NewInfrastructureError("save image record", err)
	}
	us.logger.Infof(providers.TypeApp, "Stored image %s for %s %s with %d tags", id, identity.Kind, identity.Key, len(tags))

	return &models.UploadResult{
		Success:  true,
		ImageURL: models.ReconstructURL(rec, us.legacyMarker).URL,
		Tags:     tags,
		ID:       id,
	}, nil
}

// extension picks the stored file extension from the client filename, then
// from the declared content type.
func extension(filename, contentType string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if isSafeExtension(ext) {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		if ext = strings.TrimPrefix(exts[0], "."); isSafeExtension(ext) {
			return ext
		}
	}
	return fallbackExtension
}

func isSafeExtension(ext string) bool {
	if ext == "" || len(ext) > 8 {
		return false
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
