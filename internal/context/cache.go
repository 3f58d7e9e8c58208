// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package context

import (
	"sync"
	"time"
)

// =============================================================================
// CONTENT CACHE
// =============================================================================

// ContentCache keeps recently read KB files keyed by absolute path. An entry
// is valid only while the file's modification time and size are unchanged,
// so edits made outside the program are always picked up.
type ContentCache struct {
	mu          sync.Mutex
	entries     map[string]*cacheEntry
	order       []string // least recently used first
	maxEntries  int
	maxBytes    int64
	currentSize int64

	hits   int
	misses int
}

type cacheEntry struct {
	content string
	modTime time.Time
	size    int64
}

// CacheStats reports cache usage.
type CacheStats struct {
	Hits    int
	Misses  int
	Entries int
	Bytes   int64
}

// NewContentCache creates a cache. Non-positive limits select 256 entries
// and 32MB.
func NewContentCache(maxEntries int, maxBytes int64) *ContentCache {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	if maxBytes <= 0 {
		maxBytes = 32 << 20
	}
	return &ContentCache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		maxBytes:   maxBytes,
	}
}

// Get returns the cached content if the file still has modTime and size.
func (c *ContentCache) Get(path string, modTime time.Time, size int64) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[path]
	if !ok {
		c.misses++
		return "", false
	}
	if !e.modTime.Equal(modTime) || e.size != size {
		c.removeLocked(path)
		c.misses++
		return "", false
	}
	c.touchLocked(path)
	c.hits++
	return e.content, true
}

// Put stores content read from a file with the given stat values. Content
// larger than a tenth of the byte budget is not cached.
func (c *ContentCache) Put(path, content string, modTime time.Time, size int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := int64(len(content))
	if n > c.maxBytes/10 {
		return
	}
	c.removeLocked(path)

	for len(c.order) > 0 && (c.currentSize+n > c.maxBytes || len(c.entries) >= c.maxEntries) {
		c.removeLocked(c.order[0])
	}

	c.entries[path] = &cacheEntry{content: content, modTime: modTime, size: size}
	c.currentSize += n
	c.order = append(c.order, path)
}

// Invalidate drops path.
func (c *ContentCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(path)
}

// Clear drops everything.
func (c *ContentCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
	c.order = nil
	c.currentSize = 0
}

// Stats returns a snapshot of the counters.
func (c *ContentCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Hits:    c.hits,
		Misses:  c.misses,
		Entries: len(c.entries),
		Bytes:   c.currentSize,
	}
}

func (c *ContentCache) removeLocked(path string) {
	e, ok := c.entries[path]
	if !ok {
		return
	}
	c.currentSize -= int64(len(e.content))
	delete(c.entries, path)
	for i, p := range c.order {
		if p == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *ContentCache) touchLocked(path string) {
	for i, p := range c.order {
		if p == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, path)
}
