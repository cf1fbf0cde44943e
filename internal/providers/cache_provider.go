package providers

import (
	"github.com/borkya1/smart-gallery/internal/models"
	"github.com/borkya1/smart-gallery/internal/structures"
	"github.com/coocood/freecache"
)

const imageKeyPrefix = "img:"

// ImageCacheInterface keeps recently served images in memory, keyed by the
// filename they are served under. Stored images never change, so entries
// only leave the cache by TTL or eviction.
type ImageCacheInterface interface {
	Get(filename string) (*models.Blob, bool)
	Set(filename string, blob *models.Blob)
}

type ImageCache struct {
	cache  *freecache.Cache
	ttl    int
	logger Logger
}

func NewImageCache(conf *structures.Config, logger Logger) ImageCacheInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "Image cache disabled")
		return &noopImageCache{}
	}

	sizeBytes := conf.Cache.Size * 1024 * 1024
	ttl := max(int(conf.Cache.TTL.Seconds()), 1)

	logger.Infof(TypeApp, "Image cache initialized: %dMB, TTL=%ds, largest image %dKB", conf.Cache.Size, ttl, conf.Cache.Size)

	return &ImageCache{
		cache:  freecache.NewCache(sizeBytes),
		ttl:    ttl,
		logger: logger,
	}
}

func (c *ImageCache) Get(filename string) (*models.Blob, bool) {
	raw, err := c.cache.Get([]byte(imageKeyPrefix + filename))
	if err != nil {
		return nil, false
	}
	return decodeImage(raw)
}

// Set skips images above the per-entry limit of freecache (1/1024 of the cache).
func (c *ImageCache) Set(filename string, blob *models.Blob) {
	if err := c.cache.Set([]byte(imageKeyPrefix+filename), encodeImage(blob), c.ttl); err != nil {
		c.logger.Debugf(TypeGet, "Image %s not cached: %s", filename, err)
	}
}

// Entries are one length byte, the content type, then the image bytes.
// Content types longer than 255 bytes are dropped.
func encodeImage(blob *models.Blob) []byte {
	contentType := blob.ContentType
	if len(contentType) > 255 {
		contentType = ""
	}
	out := make([]byte, 0, 1+len(contentType)+len(blob.Data))
	out = append(out, byte(len(contentType)))
	out = append(out, contentType...)
	return append(out, blob.Data...)
}

func decodeImage(raw []byte) (*models.Blob, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	n := int(raw[0])
	if len(raw) < 1+n {
		return nil, false
	}
	return &models.Blob{ContentType: string(raw[1 : 1+n]), Data: raw[1+n:]}, true
}

type noopImageCache struct{}

func (n *noopImageCache) Get(_ string) (*models.Blob, bool) { return nil, false }
func (n *noopImageCache) Set(_ string, _ *models.Blob)      {}
