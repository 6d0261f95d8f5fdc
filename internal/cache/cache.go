// Package cache holds process-lifetime analysis results keyed by content
// fingerprint, bounded by TTL and capacity.
package cache

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scrollsense/scrollsense/internal/model"
)

const (
	// DefaultTTL is how long an entry stays servable after insertion.
	DefaultTTL = 2 * time.Hour
	// DefaultMaxSize caps the number of entries after any Set.
	DefaultMaxSize = 1000
	// DefaultEvictBatch is how many low-hit entries are reclaimed when the
	// cache is full and nothing has expired.
	DefaultEvictBatch = 100
)

type entry struct {
	result     model.AnalysisResult
	insertedAt time.Time
	hitCount   int
	order      int // insertion sequence, breaks hitCount ties
}

// Cache is a bounded, TTL-aware result cache. Eviction prefers expired
// entries, then the least-hit entries: cache value here tracks how often a
// pattern recurs, not recency, so this approximates LFU rather than LRU.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	ttl        time.Duration
	maxSize    int
	evictBatch int
	seq        int
	now        func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the entry time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithMaxSize overrides the capacity bound.
func WithMaxSize(n int) Option {
	return func(c *Cache) { c.maxSize = n }
}

// WithEvictBatch overrides how many entries a capacity eviction reclaims.
func WithEvictBatch(n int) Option {
	return func(c *Cache) { c.evictBatch = n }
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache with the given options applied over the defaults.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]*entry),
		ttl:        DefaultTTL,
		maxSize:    DefaultMaxSize,
		evictBatch: DefaultEvictBatch,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the cached result for key, or false if the key is
// absent or expired. An expired entry is deleted on the read that finds it.
// A hit increments the entry's hit count.
func (c *Cache) Get(key string) (model.AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return model.AnalysisResult{}, false
	}
	if c.now().Sub(e.insertedAt) > c.ttl {
		delete(c.entries, key)
		zap.L().Debug("cache: expired entry dropped", zap.String("key", keyPrefix(key)))
		return model.AnalysisResult{}, false
	}
	e.hitCount++
	return e.result, true
}

// Set stores result under key, replacing any existing entry wholesale. If
// the cache is at capacity it first drops expired entries, then the
// lowest-hit entries, before inserting with a zero hit count.
func (c *Cache) Set(key string, result model.AnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.reclaim()
	}

	c.seq++
	c.entries[key] = &entry{
		result:     result,
		insertedAt: c.now(),
		order:      c.seq,
	}
}

// reclaim runs the two-phase eviction: expired entries first, then, if the
// cache is still at capacity, the evictBatch entries with the lowest hit
// counts (insertion order breaks ties). Callers hold the lock.
func (c *Cache) reclaim() {
	now := c.now()
	expired := 0
	for k, e := range c.entries {
		if now.Sub(e.insertedAt) > c.ttl {
			delete(c.entries, k)
			expired++
		}
	}
	if len(c.entries) < c.maxSize {
		if expired > 0 {
			zap.L().Debug("cache: reclaimed expired entries", zap.Int("count", expired))
		}
		return
	}

	type candidate struct {
		key   string
		hits  int
		order int
	}
	candidates := make([]candidate, 0, len(c.entries))
	for k, e := range c.entries {
		candidates = append(candidates, candidate{key: k, hits: e.hitCount, order: e.order})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].hits != candidates[j].hits {
			return candidates[i].hits < candidates[j].hits
		}
		return candidates[i].order < candidates[j].order
	})

	n := c.evictBatch
	if n > len(candidates) {
		n = len(candidates)
	}
	for _, cand := range candidates[:n] {
		delete(c.entries, cand.key)
	}
	zap.L().Debug("cache: evicted low-hit entries",
		zap.Int("expired", expired),
		zap.Int("evicted", n),
	)
}

// EntryStats describes a single cached entry for introspection. Keys are
// truncated so stats output does not leak full fingerprints.
type EntryStats struct {
	KeyPrefix string `json:"key_prefix"`
	AgeMs     int64  `json:"age_ms"`
	Hits      int    `json:"hits"`
}

// Stats is a read-only snapshot of cache state.
type Stats struct {
	Size    int          `json:"size"`
	MaxSize int          `json:"max_size"`
	Entries []EntryStats `json:"entries"`
}

// Stats returns a snapshot of the cache without mutating any entry.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	stats := Stats{
		Size:    len(c.entries),
		MaxSize: c.maxSize,
		Entries: make([]EntryStats, 0, len(c.entries)),
	}
	for k, e := range c.entries {
		stats.Entries = append(stats.Entries, EntryStats{
			KeyPrefix: keyPrefix(k),
			AgeMs:     now.Sub(e.insertedAt).Milliseconds(),
			Hits:      e.hitCount,
		})
	}
	sort.Slice(stats.Entries, func(i, j int) bool {
		return stats.Entries[i].KeyPrefix < stats.Entries[j].KeyPrefix
	})
	return stats
}

// Size returns the current number of entries.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func keyPrefix(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
