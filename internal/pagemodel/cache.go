package pagemodel

import (
	"context"
	"fmt"
	"hash/crc32"
	"sync"
	"time"

	"github.com/salesagent/runtime/pkg/types"
)

// DefaultTTL is the Content Cache's default entry lifetime (spec §4.2).
const DefaultTTL = 5 * time.Minute

// sweepInterval is how often the background sweep evicts expired entries.
const sweepInterval = 60 * time.Second

// mutationDebounce is how long the cache waits after a significant DOM
// mutation signal before flushing, coalescing bursts of mutations into one
// flush (spec §4.2).
const mutationDebounce = 1 * time.Second

type cacheEntry struct {
	ctx       *types.PageContext
	expiresAt time.Time
}

// Cache is a TTL map of extracted [types.PageContext] snapshots, keyed by
// `content:<url>[:<contentHash>]`. Entries self-evict on read once expired; a
// periodic sweep also clears expired entries so memory isn't held by a tab
// that stopped polling. [Cache.OnMutation] flushes the whole cache after a
// debounce window; no page-side MutationObserver is installed to call it.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration

	mutationTimer *time.Timer
	stopSweep     chan struct{}
	sweepOnce     sync.Once
}

// NewCache creates a Cache with the spec-mandated 5-minute default TTL and
// starts its background sweep goroutine.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries:   make(map[string]cacheEntry),
		ttl:       DefaultTTL,
		stopSweep: make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	go c.sweepLoop()
	return c
}

// CacheOption configures a [Cache].
type CacheOption func(*Cache)

// WithTTL overrides the default 5-minute TTL.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = ttl }
}

// Key builds the cache key for a URL and its current content hash.
func Key(url string, contentHash uint32) string {
	return fmt.Sprintf("content:%s:%d", url, contentHash)
}

// ContentHash computes the fast 32-bit rolling hash spec.md §4.2 calls for,
// over the page's raw extracted text so near-identical re-extractions reuse
// the same cache entry.
func ContentHash(pc *types.PageContext) uint32 {
	h := crc32.NewIEEE()
	_, _ = h.Write([]byte(pc.Title))
	for _, s := range pc.Structure.Sections {
		_, _ = h.Write([]byte(s.TextPreview))
	}
	return h.Sum32()
}

// Get returns the cached context for key, or nil if absent or expired. An
// expired entry is evicted as a side effect of the read.
func (c *Cache) Get(key string) *types.PageContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil
	}
	return e.ctx
}

// Set stores pc under key with the cache's configured TTL.
func (c *Cache) Set(key string, pc *types.PageContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{ctx: pc, expiresAt: time.Now().Add(c.ttl)}
}

// Invalidate drops a single key immediately.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Flush immediately drops every entry, used for explicit invalidation
// requests that shouldn't wait for the mutation debounce.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// OnMutation schedules a flush of the entire cache 1s later; each call
// restarts the wait, so a burst of calls yields one flush. Nothing in this
// runtime observes the host page's DOM or calls OnMutation, so page changes
// do not invalidate the cache; entries leave it only through TTL expiry,
// [Cache.Invalidate] or [Cache.Flush].
func (c *Cache) OnMutation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mutationTimer != nil {
		c.mutationTimer.Stop()
	}
	c.mutationTimer = time.AfterFunc(mutationDebounce, c.Flush)
}

// sweepLoop periodically evicts all expired entries.
func (c *Cache) sweepLoop() {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			c.sweepExpired()
		case <-c.stopSweep:
			return
		}
	}
}

func (c *Cache) sweepExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// Close stops the background sweep goroutine. Safe to call more than once.
func (c *Cache) Close() {
	c.sweepOnce.Do(func() { close(c.stopSweep) })
}

// GetOrExtract returns the cached context for url if present and unexpired;
// otherwise it runs extract, caches the result, and returns it. extract is
// typically [Extractor.Extract] bound to the session's page.
func (c *Cache) GetOrExtract(ctx context.Context, url string, extract func(context.Context) (*types.PageContext, error)) (*types.PageContext, error) {
	// A first pass without a content hash: most calls hit a warm cache keyed
	// purely by URL immediately after extraction (Set uses the hashed key,
	// so a plain-URL probe only succeeds via the convenience alias below).
	if pc := c.Get("content:" + url); pc != nil {
		return pc, nil
	}
	pc, err := extract(ctx)
	if err != nil {
		return nil, err
	}
	hash := ContentHash(pc)
	c.Set(Key(url, hash), pc)
	c.Set("content:"+url, pc)
	return pc, nil
}
