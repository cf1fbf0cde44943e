package providers

import (
	"github.com/borkya1/smart-gallery/internal/models"
	"github.com/borkya1/smart-gallery/internal/structures"
)

// InstrumentedImageCache counts hits and misses of the wrapped cache.
type InstrumentedImageCache struct {
	inner   ImageCacheInterface
	metrics MetricsProviderInterface
}

func (c *InstrumentedImageCache) Get(filename string) (*models.Blob, bool) {
	blob, ok := c.inner.Get(filename)
	if ok {
		c.metrics.IncCacheHits()
	} else {
		c.metrics.IncCacheMisses()
	}
	return blob, ok
}

func (c *InstrumentedImageCache) Set(filename string, blob *models.Blob) {
	c.inner.Set(filename, blob)
}

// NewInstrumentedImageCache returns a disabled cache unwrapped so it does not
// report a miss for every image request.
func NewInstrumentedImageCache(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) ImageCacheInterface {
	inner := NewImageCache(conf, logger)
	if _, disabled := inner.(*noopImageCache); disabled {
		return inner
	}
	return &InstrumentedImageCache{
		inner:   inner,
		metrics: metrics,
	}
}
