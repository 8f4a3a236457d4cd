package cache

import (
	"sync/atomic"
	"time"
)

// Stats holds cache statistics.
type Stats struct {
	Hits        uint64
	Misses      uint64
	Evictions   uint64
	Expirations uint64
	Size        int64
	LastUpdated time.Time
}

// StatsCollector collects cache statistics with atomic counters.
type StatsCollector struct {
	hits        atomic.Uint64
	misses      atomic.Uint64
	evictions   atomic.Uint64
	expirations atomic.Uint64
	size        atomic.Int64
	lastUpdated atomic.Int64
}

func NewStatsCollector() *StatsCollector {
	c := &StatsCollector{}
	c.touch()
	return c
}

func (c *StatsCollector) touch() {
	c.lastUpdated.Store(time.Now().UnixNano())
}

func (c *StatsCollector) RecordHit() {
	c.hits.Add(1)
	c.touch()
}

func (c *StatsCollector) RecordMiss() {
	c.misses.Add(1)
	c.touch()
}

func (c *StatsCollector) RecordEviction() {
	c.evictions.Add(1)
	c.touch()
}

func (c *StatsCollector) RecordExpiry() {
	c.expirations.Add(1)
	c.touch()
}

func (c *StatsCollector) UpdateSize(size int64) {
	c.size.Store(size)
	c.touch()
}

func (c *StatsCollector) GetStats() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Evictions:   c.evictions.Load(),
		Expirations: c.expirations.Load(),
		Size:        c.size.Load(),
		LastUpdated: time.Unix(0, c.lastUpdated.Load()),
	}
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (c *StatsCollector) HitRate() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
