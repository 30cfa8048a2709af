package postgres

import (
	"sync"
	"time"

	"scoutapi/internal/model"
)

// DefaultListCacheTTL bounds how stale a cached papers list may get.
const DefaultListCacheTTL = 5 * time.Minute

// ListCache is a time-bound cache for papers-list reads, keyed by the
// resolved user id. Entries are invalidated purely by TTL expiry, never by
// writes; a save can therefore be missing from a cached list for up to one
// TTL window. Entries are immutable once stored, so a whole-entry replace
// under the mutex is the only synchronization needed.
type ListCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]listEntry
	now     func() time.Time
}

type listEntry struct {
	papers   []model.Paper
	storedAt time.Time
}

// NewListCache builds a cache with the given TTL. A non-positive ttl falls
// back to DefaultListCacheTTL.
func NewListCache(ttl time.Duration) *ListCache {
	if ttl <= 0 {
		ttl = DefaultListCacheTTL
	}
	return &ListCache{
		ttl:     ttl,
		entries: make(map[string]listEntry),
		now:     time.Now,
	}
}

// Get returns the cached list for userID if it has not expired.
func (c *ListCache) Get(userID string) ([]model.Paper, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[userID]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, userID)
		return nil, false
	}
	return e.papers, true
}

// Put replaces the cached list for userID.
func (c *ListCache) Put(userID string, papers []model.Paper) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = listEntry{papers: papers, storedAt: c.now()}
}
