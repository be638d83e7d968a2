package operation

import (
	"sync"
)

// cacheState is the lifecycle of a single cache entry, mirroring the
// original engine's pending/ready/failed states so concurrent
// callers requesting the same subtree either wait for the in-flight
// computation or are unblocked immediately when it aborts.
type cacheState int

const (
	statePending cacheState = iota
	stateReady
	stateFailed
)

type cacheEntry struct {
	state  cacheState
	result *ResultTable
	err    error
	done   chan struct{}
	bytes  uint64
}

// ResultCache caches Node results keyed by AsString, sharing computation
// and memory across identical subtrees within and across queries. It is
// bounded by a byte budget rather than an entry count, evicting the
// least-recently-used entries first; a byte budget fits better than a
// count budget since result tables vary wildly in size.
type ResultCache struct {
	mu        sync.Mutex
	entries   map[string]*cacheEntry
	order     []string // least-recently-used first
	maxBytes  uint64
	curBytes  uint64
	hits      uint64
	misses    uint64
}

// NewResultCache creates a cache with the given byte budget.
func NewResultCache(maxBytes uint64) *ResultCache {
	return &ResultCache{
		entries:  make(map[string]*cacheEntry),
		maxBytes: maxBytes,
	}
}

// GetResult returns node's cached result, computing it via ComputeResult
// if absent, and publishing the outcome for any concurrent caller waiting
// on the same key. This is the only path by which a Node's ComputeResult
// should be invoked; Go has no mechanism to make ComputeResult itself
// private-to-the-interface the way the original engine could with C++
// access control, so the discipline is enforced by convention: callers
// use GetResult, never node.ComputeResult directly. The one exception is
// scan.Scan in Subquery-S mode, which calls its child's ComputeResult
// itself, so a child's result is neither looked up in nor stored in the
// cache.
func (c *ResultCache) GetResult(node Node, ctx *ExecContext) (*ResultTable, error) {
	key := node.AsString()

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		c.touch(key)
		c.mu.Unlock()
		<-entry.done
		c.mu.Lock()
		c.hits++
		result, err := entry.result, entry.err
		c.mu.Unlock()
		return result, err
	}

	entry := &cacheEntry{state: statePending, done: make(chan struct{})}
	c.entries[key] = entry
	c.order = append(c.order, key)
	c.misses++
	c.mu.Unlock()

	result, err := node.ComputeResult(ctx)

	c.mu.Lock()
	if err != nil {
		entry.state = stateFailed
		entry.err = err
		// Failed entries are not worth keeping around; remove so a later
		// retry (e.g. after the cause of the timeout clears) recomputes.
		delete(c.entries, key)
		c.removeFromOrder(key)
	} else {
		entry.state = stateReady
		entry.result = result
		entry.bytes = estimateBytes(result)
		c.curBytes += entry.bytes
		c.evictToFit()
	}
	close(entry.done)
	c.mu.Unlock()

	return result, err
}

// Stats returns cache hit/miss counters.
func (c *ResultCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Clear empties the cache.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
	c.order = nil
	c.curBytes = 0
}

func (c *ResultCache) touch(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *ResultCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *ResultCache) evictToFit() {
	for c.maxBytes > 0 && c.curBytes > c.maxBytes && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		if entry, ok := c.entries[oldest]; ok {
			c.curBytes -= entry.bytes
			delete(c.entries, oldest)
		}
	}
}

func estimateBytes(r *ResultTable) uint64 {
	if r == nil {
		return 0
	}
	return uint64(len(r.Columns)) * uint64(r.Rows) * 8
}
