package search

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/viper-logs/viperlog/internal/event"
	"github.com/viper-logs/viperlog/pkg/metrics"
)

// resultCache memoises boolean query results. Keys embed a generation
// counter bumped on every index mutation, so stale entries are never served;
// they simply age out of the LRU. Concurrent identical queries are
// deduplicated through singleflight.
type resultCache struct {
	lru   *lru.Cache[string, []event.ID]
	group singleflight.Group
	gen   atomic.Uint64
	m     *metrics.Metrics
}

func newResultCache(size int, m *metrics.Metrics) (*resultCache, error) {
	cache, err := lru.New[string, []event.ID](size)
	if err != nil {
		return nil, fmt.Errorf("creating query cache: %w", err)
	}
	return &resultCache{lru: cache, m: m}, nil
}

// invalidate marks every cached result stale.
func (c *resultCache) invalidate() {
	c.gen.Add(1)
}

func (c *resultCache) key(expr string) string {
	sum := sha256.Sum256([]byte(expr))
	return fmt.Sprintf("%d:%x", c.gen.Load(), sum[:16])
}

// getOrCompute returns the cached result for expr or computes and stores it.
// The second return reports whether the result came from cache.
func (c *resultCache) getOrCompute(expr string, compute func() ([]event.ID, error)) ([]event.ID, bool, error) {
	key := c.key(expr)
	if ids, ok := c.lru.Get(key); ok {
		c.hit()
		return slices.Clone(ids), true, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if ids, ok := c.lru.Get(key); ok {
			return ids, nil
		}
		ids, err := compute()
		if err != nil {
			return nil, err
		}
		c.lru.Add(key, ids)
		return ids, nil
	})
	if err != nil {
		return nil, false, err
	}
	c.miss()
	return slices.Clone(val.([]event.ID)), false, nil
}

func (c *resultCache) hit() {
	if c.m != nil {
		c.m.CacheHitsTotal.Inc()
	}
}

func (c *resultCache) miss() {
	if c.m != nil {
		c.m.CacheMissesTotal.Inc()
	}
}
