// Package cache stores query results for a bounded freshness window.
package cache

import (
	"context"
	"sync"
	"time"

	"ecomdash/backend/internal/model"
)

// Cache defines the interface for caching query results.
type Cache interface {
	// Get returns the cached result for key if it has not expired and, when
	// maxAge > 0, was stored less than maxAge ago.
	Get(ctx context.Context, key string, maxAge time.Duration) (*model.QueryResult, bool, error)
	// Put stores result under key for ttl.
	Put(ctx context.Context, key string, result *model.QueryResult, ttl time.Duration) error
	// Delete removes a single entry.
	Delete(ctx context.Context, key string) error
	// Clear removes all entries.
	Clear(ctx context.Context) error
	// Close releases any resources held by the cache.
	Close() error
}

// Entry is a single cached result with its bookkeeping.
type Entry struct {
	Result    *model.QueryResult
	CreatedAt time.Time
	ExpiresAt time.Time
	LastUsed  time.Time
}

// MemoryCache is an in-process Cache bounded by entry count.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	maxEntries int
	stats      *StatsCollector
	now        func() time.Time
}

func NewMemoryCache(maxEntries int, stats *StatsCollector) *MemoryCache {
	if stats == nil {
		stats = NewStatsCollector()
	}
	return &MemoryCache{
		entries:    make(map[string]*Entry),
		maxEntries: maxEntries,
		stats:      stats,
		now:        time.Now,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string, maxAge time.Duration) (*model.QueryResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.stats.RecordMiss()
		return nil, false, nil
	}
	now := c.now()
	if !now.Before(entry.ExpiresAt) {
		delete(c.entries, key)
		c.stats.RecordExpiry()
		c.stats.RecordMiss()
		c.stats.UpdateSize(int64(len(c.entries)))
		return nil, false, nil
	}
	if maxAge > 0 && !now.Before(entry.CreatedAt.Add(maxAge)) {
		// still valid for callers with a longer window
		c.stats.RecordMiss()
		return nil, false, nil
	}
	entry.LastUsed = now
	c.stats.RecordHit()
	return entry.Result, true, nil
}

func (c *MemoryCache) Put(ctx context.Context, key string, result *model.QueryResult, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 {
		for len(c.entries) >= c.maxEntries {
			c.evictOne(now)
		}
	}

	c.entries[key] = &Entry{
		Result:    result,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		LastUsed:  now,
	}
	c.stats.UpdateSize(int64(len(c.entries)))
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	c.stats.UpdateSize(int64(len(c.entries)))
	return nil
}

func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Entry)
	c.stats.UpdateSize(0)
	return nil
}

func (c *MemoryCache) Close() error {
	return c.Clear(context.Background())
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) Stats() Stats {
	return c.stats.GetStats()
}

// evictOne drops an expired entry if there is one, otherwise the least
// recently used. Callers hold c.mu.
func (c *MemoryCache) evictOne(now time.Time) {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if !now.Before(entry.ExpiresAt) {
			oldestKey = key
			break
		}
		if oldestKey == "" || entry.LastUsed.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.LastUsed
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.stats.RecordEviction()
	}
}

// NoopCache never stores anything; every Get misses.
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context, key string, maxAge time.Duration) (*model.QueryResult, bool, error) {
	return nil, false, nil
}

func (NoopCache) Put(ctx context.Context, key string, result *model.QueryResult, ttl time.Duration) error {
	return nil
}

func (NoopCache) Delete(ctx context.Context, key string) error { return nil }
func (NoopCache) Clear(ctx context.Context) error              { return nil }
func (NoopCache) Close() error                                 { return nil }
