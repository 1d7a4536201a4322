package cache

import (
	"time"

	"github.com/coocood/freecache"
	"github.com/rs/zerolog"

	"github.com/ChristopherCousin/Kcal/internal/config"
)

// Cache is a small in-process byte cache used for edge responses.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

type freeCache struct {
	cache *freecache.Cache
	ttl   int
}

// New returns a freecache-backed cache, or a no-op one when caching is
// disabled or sized to zero.
func New(conf config.CacheConfig, logger zerolog.Logger) Cache {
	if !conf.Enabled || conf.Size <= 0 {
		logger.Debug().Msg("response cache disabled")
		return noopCache{}
	}
	ttl := int(conf.TTL / time.Second)
	if ttl <= 0 {
		ttl = 60
	}
	logger.Debug().Int("size_mb", conf.Size).Int("ttl_s", ttl).Msg("response cache initialised")
	return &freeCache{
		cache: freecache.NewCache(conf.Size * 1024 * 1024),
		ttl:   ttl,
	}
}

func (c *freeCache) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *freeCache) Set(key string, value []byte) {
	_ = c.cache.Set([]byte(key), value, c.ttl)
}

type noopCache struct{}

func (noopCache) Get(string) ([]byte, bool) { return nil, false }
func (noopCache) Set(string, []byte)        {}
