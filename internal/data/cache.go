package data

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

type cacheEntry struct {
	dataset   *Dataset
	expiresAt time.Time
}

// DatasetCache keeps merged datasets in memory for a TTL. Merging several
// years of CSV is slow and every simulation of the same range reuses it.
// A nil *DatasetCache is a valid, always-empty cache.
type DatasetCache struct {
	mu    sync.RWMutex
	store map[string]*cacheEntry
	ttl   time.Duration
	now   func() time.Time

	stop chan struct{}
	done chan struct{}
}

// NewDatasetCache starts a cache whose expired entries are swept every
// cleanupEvery. Call Close to stop the sweeper.
func NewDatasetCache(ttl, cleanupEvery time.Duration) *DatasetCache {
	c := &DatasetCache{
		store: make(map[string]*cacheEntry),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go c.cleanup(cleanupEvery)
	return c
}

// Get retrieves a cached dataset if available and not expired
func (c *DatasetCache) Get(key string) (*Dataset, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[key]
	if !exists || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.dataset, true
}

func (c *DatasetCache) Set(key string, ds *Dataset) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &cacheEntry{
		dataset:   ds,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Len counts stored entries, expired ones included until swept.
func (c *DatasetCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Clear removes all entries from the cache
func (c *DatasetCache) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*cacheEntry)
}

// Close stops the sweeper and waits for it to exit.
func (c *DatasetCache) Close() {
	if c == nil {
		return
	}
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
	<-c.done
}

func (c *DatasetCache) cleanup(every time.Duration) {
	defer close(c.done)
	if every <= 0 {
		<-c.stop
		return
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *DatasetCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.store {
		if now.After(entry.expiresAt) {
			delete(c.store, key)
		}
	}
}

// CacheKey creates a cache key from a merge request.
func CacheKey(req MergeRequest) string {
	keyStr := fmt.Sprintf("%s:%s:%d:%d:%s",
		req.Location,
		req.Point,
		req.StartYear,
		req.EndYear,
		req.LoadProfile,
	)

	// Hash the key to keep it reasonably sized
	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:])
}

// LoadCached merges req through the cache.
func (c *Catalog) LoadCached(cache *DatasetCache, req MergeRequest, pick ProfilePicker) (*Dataset, error) {
	key := CacheKey(req)
	if ds, ok := cache.Get(key); ok {
		return ds, nil
	}
	ds, err := c.Merge(req, pick)
	if err != nil {
		return nil, err
	}
	cache.Set(key, ds)
	return ds, nil
}
