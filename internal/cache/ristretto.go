package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// ristrettoCache adapts a cost-based ristretto.Cache to the Cache
// interface.
type ristrettoCache struct {
	inner      *ristretto.Cache
	defaultTTL time.Duration
}

// NewRistretto builds a ristretto-backed cache. maxSizeMB bounds memory
// cost, maxEntries bounds the counter table sizing.
func NewRistretto(maxSizeMB int64, maxEntries int64, defaultTTL time.Duration) (Cache, error) {
	if maxSizeMB <= 0 {
		maxSizeMB = 64
	}
	if maxEntries <= 0 {
		maxEntries = 100_000
	}

	inner, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxSizeMB * 1024 * 1024,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &ristrettoCache{inner: inner, defaultTTL: defaultTTL}, nil
}

func (c *ristrettoCache) Get(key string) (any, bool) {
	return c.inner.Get(key)
}

func (c *ristrettoCache) Set(key string, value any, cost int64, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if ttl > 0 {
		return c.inner.SetWithTTL(key, value, cost, ttl)
	}
	return c.inner.Set(key, value, cost)
}

func (c *ristrettoCache) Delete(key string) {
	c.inner.Del(key)
}

func (c *ristrettoCache) Clear() {
	c.inner.Clear()
}

func (c *ristrettoCache) Stats() Stats {
	m := c.inner.Metrics
	if m == nil {
		return Stats{}
	}
	return Stats{
		Hits:      int64(m.Hits()),
		Misses:    int64(m.Misses()),
		KeysAdded: int64(m.KeysAdded()),
		Evictions: int64(m.KeysEvicted()),
		Size:      int64(m.CostAdded() - m.CostEvicted()),
	}
}
