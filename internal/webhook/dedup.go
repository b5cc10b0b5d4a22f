package webhook

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultDedupWindow is how long processed-event keys are retained before
// the cache is cleared in bulk.
const DefaultDedupWindow = 10 * time.Minute

// DedupCache suppresses repeated webhook deliveries within a fixed window.
//
// Expiry is coarse-grained: the entire cache is cleared once the window
// elapses, not per entry. Clearing too early only risks a rare duplicate
// forward, never data loss. The check-and-insert is a single atomic step so
// two near-simultaneous duplicates cannot both pass.
type DedupCache struct {
	mu        sync.Mutex
	seen      map[string]struct{}
	window    time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// NewDedupCache creates a cache with the given retention window. A zero or
// negative window falls back to DefaultDedupWindow.
func NewDedupCache(window time.Duration) *DedupCache {
	return newDedupCacheWithClock(window, time.Now)
}

// newDedupCacheWithClock injects the clock for deterministic tests.
func newDedupCacheWithClock(window time.Duration, now func() time.Time) *DedupCache {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	return &DedupCache{
		seen:      make(map[string]struct{}),
		window:    window,
		now:       now,
		lastSweep: now(),
	}
}

// CheckAndRecord records the key and reports whether it was seen for the
// first time within the current window.
func (c *DedupCache) CheckAndRecord(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now := c.now(); now.Sub(c.lastSweep) >= c.window {
		slog.Debug("DedupCache: window elapsed, clearing", "entries", len(c.seen))
		c.seen = make(map[string]struct{})
		c.lastSweep = now
	}

	if _, dup := c.seen[key]; dup {
		return false
	}
	c.seen[key] = struct{}{}
	return true
}

// Len returns the number of keys currently retained.
func (c *DedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// DedupKey builds the composite de-duplication token for an event:
// event name, external message ID, and a hash of the content.
func DedupKey(event string, messageID int64, content string) string {
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%s-%d-%s", event, messageID, hex.EncodeToString(sum[:8]))
}
