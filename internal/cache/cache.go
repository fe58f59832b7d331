// Package cache implements the three caches described in §4.6: a
// selectively-evicted pattern-date cache, a generation-gated
// schedule-result cache, and a never-invalidated content-addressed
// CSP-result cache. Both bounded caches are backed by
// github.com/hashicorp/golang-lru/v2, the LRU implementation also present
// in the retrieval pack's dependency trees.
package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dayplan/autoplanner/internal/csp"
	"github.com/dayplan/autoplanner/internal/model"
)

// PatternDateKey is the pattern-date cache key: (seriesId, patternIdx,
// start, end, anchor).
type PatternDateKey struct {
	SeriesID   model.ID
	PatternIdx int
	Start      model.Date
	End        model.Date
	Anchor     model.Date // empty string when no anchor
}

// PatternDateCache caches expand() results, evicted selectively by scope
// (§4.6 item 1).
type PatternDateCache struct {
	mu      sync.Mutex
	entries map[PatternDateKey][]model.Date

	hits, misses int
}

func NewPatternDateCache() *PatternDateCache {
	return &PatternDateCache{entries: make(map[PatternDateKey][]model.Date)}
}

func (c *PatternDateCache) Get(key PatternDateKey) ([]model.Date, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if ok {
		c.hits++
		out := append([]model.Date(nil), v...)
		return out, true
	}
	c.misses++
	return nil, false
}

func (c *PatternDateCache) Put(key PatternDateKey, dates []model.Date) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = append([]model.Date(nil), dates...)
}

// EvictSeries clears every cached key for the given series (scope
// series{id}).
func (c *PatternDateCache) EvictSeries(id model.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.SeriesID == id {
			delete(c.entries, k)
		}
	}
}

// Clear clears the whole cache (scope global).
func (c *PatternDateCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[PatternDateKey][]model.Date)
}

// Stats returns (hits, misses) since construction; neither Clear nor
// EvictSeries resets the counters.
func (c *PatternDateCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// ScheduleKey is the schedule-result cache key: (start, end).
type ScheduleKey struct {
	Start model.Date
	End   model.Date
}

// ScheduleEntry pairs a cached schedule with the generation it was built
// under (§4.6 item 2).
type ScheduleEntry struct {
	Generation int64
	Schedule   *model.Schedule
}

// ScheduleCache is a bounded LRU of schedule results, entirely cleared and
// generation-bumped on every invalidation.
type ScheduleCache struct {
	mu         sync.Mutex
	lru        *lru.Cache[ScheduleKey, ScheduleEntry]
	generation int64
}

func NewScheduleCache(size int) *ScheduleCache {
	l, _ := lru.New[ScheduleKey, ScheduleEntry](size)
	return &ScheduleCache{lru: l}
}

// Generation returns the current generation counter.
func (c *ScheduleCache) Generation() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Get returns a deep copy of the cached schedule iff its generation
// matches the current one.
func (c *ScheduleCache) Get(key ScheduleKey) (*model.Schedule, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.lru.Get(key)
	if !ok || entry.Generation != c.generation {
		return nil, false
	}
	return entry.Schedule.Clone(), true
}

// Put stores a deep copy of sched under the current generation.
func (c *ScheduleCache) Put(key ScheduleKey, sched *model.Schedule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, ScheduleEntry{Generation: c.generation, Schedule: sched.Clone()})
}

// Invalidate bumps the generation and clears the cache (any scope).
func (c *ScheduleCache) Invalidate() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.lru.Purge()
	return c.generation
}

// CSPCache is the never-invalidated content-addressed CSP-result cache
// (§4.6 item 3).
type CSPCache struct {
	mu           sync.Mutex
	lru          *lru.Cache[string, csp.Result]
	hits, misses int
}

func NewCSPCache(size int) *CSPCache {
	l, _ := lru.New[string, csp.Result](size)
	return &CSPCache{lru: l}
}

func (c *CSPCache) Get(fingerprint string) (csp.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.lru.Get(fingerprint)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return r, ok
}

func (c *CSPCache) Put(fingerprint string, result csp.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(fingerprint, result)
}

func (c *CSPCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Stats is the combined hit/miss surface exposed for testing (§4.6,
// §6.2 getCacheStats).
type Stats struct {
	PatternHits, PatternMisses int
	CSPHits, CSPMisses         int
	Generation                 int64
}

// DedupeAnchor normalizes a possibly-empty anchor pointer to the sentinel
// used in PatternDateKey.
func DedupeAnchor(anchor *model.Date) model.Date {
	if anchor == nil {
		return ""
	}
	return *anchor
}
