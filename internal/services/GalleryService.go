package services

import (
	"context"
	"strings"

	"github.com/borkya1/smart-gallery/internal/models"
	"github.com/borkya1/smart-gallery/internal/store"
	"github.com/borkya1/smart-gallery/internal/structures"
)

const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 100
)

type GalleryServiceInterface interface {
	Recent(ctx context.Context, identity models.Identity, limit int) ([]models.GalleryRecord, error)
	Search(ctx context.Context, identity models.Identity, query string) ([]models.GalleryRecord, error)
}

// GalleryService answers the read paths. Both are scoped to the records the
// identity owns; guest uploads have no owner, so a guest always sees nothing.
type GalleryService struct {
	store        store.GalleryStoreInterface
	legacyMarker string
}

func NewGalleryService(galleryStore store.GalleryStoreInterface, conf *structures.Config) GalleryServiceInterface {
	return &GalleryService{
		store:        galleryStore,
		legacyMarker: conf.Storage.LegacyHostMarker,
	}
}

// Recent returns the newest records of identity. Non-positive limits fall
// back to DefaultRecentLimit; larger ones are capped at MaxRecentLimit.
func (gs *GalleryService) Recent(ctx context.Context, identity models.Identity, limit int) ([]models.GalleryRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	limit = min(limit, MaxRecentLimit)

	if !identity.IsUser() {
		return []models.GalleryRecord{}, nil
	}

	records, err := gs.store.ListByOwner(ctx, identity.OwnerID(), limit)
	if err != nil {
		return nil, models.NewInfrastructureError("list recent images", err)
	}
	if len(records) > limit {
		records = records[:limit]
	}
	for i := range records {
		records[i] = models.ReconstructURL(records[i], gs.legacyMarker)
	}
	return records, nil
}

// Search scans every record of identity and keeps those with a tag that
// contains query, ignoring case. Matches keep retrieval order.
func (gs *GalleryService) Search(ctx context.Context, identity models.Identity, query string) ([]models.GalleryRecord, error) {
	if query == "" {
		return nil, models.NewValidationError("tag", "search query must not be empty")
	}
	if !identity.IsUser() {
		return []models.GalleryRecord{}, nil
	}

	records, err := gs.store.ListByOwner(ctx, identity.OwnerID(), 0)
	if err != nil {
		return nil, models.NewInfrastructureError("search images", err)
	}

	needle := strings.ToLower(query)
	matches := make([]models.GalleryRecord, 0)
	for _, rec := range records {
		if rec.MatchesTag(needle) {
			matches = append(matches, models.ReconstructURL(rec, gs.legacyMarker))
		}
	}
	return matches, nil
}
