package files

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registry_file_cache_hits_total",
		Help: "File record lookups served from the LRU cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registry_file_cache_misses_total",
		Help: "File record lookups that went to the store.",
	})
)

// Cache is a per-instance LRU of live file records with a TTL. Delete evicts
// only this instance's entry; other instances may serve a deleted record
// until the TTL runs out, so it suits single-instance deployments.
type Cache struct {
	lru *expirable.LRU[string, File]
}

// NewCache returns nil when size is not positive; a nil Cache is a no-op.
func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		return nil
	}
	return &Cache{lru: expirable.NewLRU[string, File](size, nil, ttl)}
}

func (c *Cache) Get(id string) (File, bool) {
	if c == nil {
		return File{}, false
	}
	f, ok := c.lru.Get(id)
	if ok {
		cacheHitsTotal.Inc()
		return f, true
	}
	cacheMissesTotal.Inc()
	return File{}, false
}

func (c *Cache) Set(f File) {
	if c == nil {
		return
	}
	c.lru.Add(f.ID, f)
}

func (c *Cache) Delete(id string) {
	if c == nil {
		return
	}
	c.lru.Remove(id)
}
