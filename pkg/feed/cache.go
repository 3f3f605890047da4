package feed

import "sync"

// UsernameCache maps author ids to usernames for the duration of one
// feed walk. Concurrent enrichment tasks share it; reads dominate and
// inserts happen only on a miss. Racing misses may both look a user up
// and the last insert wins, which is harmless because an author's
// username is treated as immutable for the run.
type UsernameCache struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewUsernameCache creates an empty cache
func NewUsernameCache() *UsernameCache {
	return &UsernameCache{names: make(map[string]string)}
}

// Get returns the cached username for an author id
func (c *UsernameCache) Get(authorID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.names[authorID]
	return name, ok
}

// Put records an author's username
func (c *UsernameCache) Put(authorID, username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[authorID] = username
}

// Len returns the number of cached authors
func (c *UsernameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}
