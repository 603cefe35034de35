package coops

import (
	"context"
	"fmt"
	"sync"

	"github.com/morsusranae/NOAAGreatLakes-WaterLevels/internal/domain"
	"github.com/morsusranae/NOAAGreatLakes-WaterLevels/internal/observability"
)

// Source retrieves normalized reading series per (station, year) unit.
type Source interface {
	DailyMeans(ctx context.Context, station string, year int) ([]domain.RawReading, error)
	MonthlyMeans(ctx context.Context, station string, year int) ([]domain.RawReading, error)
}

// CachedSource wraps a Source with an in-memory LRU cache keyed by
// (product, station, year), so retries and repeated runs over the same range
// never refetch a series.
type CachedSource struct {
	inner   Source
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a reading source.
func NewCachedSource(inner Source, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSource) DailyMeans(ctx context.Context, station string, year int) ([]domain.RawReading, error) {
	return c.lookup(ctx, ProductDailyMean, station, year, c.inner.DailyMeans)
}

func (c *CachedSource) MonthlyMeans(ctx context.Context, station string, year int) ([]domain.RawReading, error) {
	return c.lookup(ctx, ProductMonthlyMean, station, year, c.inner.MonthlyMeans)
}

func (c *CachedSource) lookup(ctx context.Context, product, station string, year int,
	fetch func(context.Context, string, int) ([]domain.RawReading, error)) ([]domain.RawReading, error) {

	key := fmt.Sprintf("%s|%s|%d", product, station, year)
	if series, ok := c.cache.get(key); ok {
		c.metrics.FetchCache.WithLabelValues("hit").Inc()
		return series, nil
	}
	c.metrics.FetchCache.WithLabelValues("miss").Inc()

	series, err := fetch(ctx, station, year)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty series so transient outages can be retried.
	if len(series) > 0 {
		c.cache.put(key, series)
	}
	return series, nil
}

// lruCache is a simple thread-safe LRU cache for reading series.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []domain.RawReading
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]domain.RawReading, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []domain.RawReading) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
