package playback

import (
	"strings"
	"sync"
	"time"
)

type cacheKey struct {
	contentKey string
	codec      string
}

type cacheEntry struct {
	handle Handle
	timer  *time.Timer
}

// TranscodeCache keeps spawned transcode processes alive for reuse. Entries
// evict after an idle timeout; a volume disconnect evicts its entries
// immediately.
type TranscodeCache struct {
	idle time.Duration

	mu      sync.Mutex
	entries map[cacheKey]*cacheEntry
}

// NewTranscodeCache creates a cache evicting entries idle longer than idle.
func NewTranscodeCache(idle time.Duration) *TranscodeCache {
	return &TranscodeCache{
		idle:    idle,
		entries: make(map[cacheKey]*cacheEntry),
	}
}

// Get returns a cached handle for (contentKey, codec) and resets its idle
// timer.
func (c *TranscodeCache) Get(contentKey, codec string) (Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[cacheKey{contentKey, codec}]
	if !ok {
		return nil, false
	}
	e.timer.Reset(c.idle)
	return e.handle, true
}

// Put caches a handle and starts its idle timer. An existing entry for the
// same key is stopped first.
func (c *TranscodeCache) Put(contentKey, codec string, h Handle) {
	k := cacheKey{contentKey, codec}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[k]; ok {
		old.timer.Stop()
		_ = old.handle.Stop()
	}
	e := &cacheEntry{handle: h}
	e.timer = time.AfterFunc(c.idle, func() { c.evict(k) })
	c.entries[k] = e
}

// Touch resets the idle timer for (contentKey, codec) if cached.
func (c *TranscodeCache) Touch(contentKey, codec string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[cacheKey{contentKey, codec}]; ok {
		e.timer.Reset(c.idle)
	}
}

// EvictVolume stops and removes every entry belonging to a volume, without
// waiting for idle timeouts. Content keys are prefixed with the volume id.
func (c *TranscodeCache) EvictVolume(volumeID string) {
	prefix := volumeID + "|"

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if strings.HasPrefix(k.contentKey, prefix) {
			e.timer.Stop()
			_ = e.handle.Stop()
			delete(c.entries, k)
		}
	}
}

// Len reports the number of live entries.
func (c *TranscodeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close stops every entry.
func (c *TranscodeCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		e.timer.Stop()
		_ = e.handle.Stop()
		delete(c.entries, k)
	}
}

func (c *TranscodeCache) evict(k cacheKey) {
	c.mu.Lock()
	e, ok := c.entries[k]
	if ok {
		delete(c.entries, k)
	}
	c.mu.Unlock()

	if ok {
		_ = e.handle.Stop()
	}
}
