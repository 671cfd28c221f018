package token

import "sync"

// Cache is a process-wide holder of the current access token for consumers
// that need a synchronous, non-blocking snapshot. It may briefly lag the
// session manager's authoritative state; callers that need a
// guaranteed-fresh token must go through the manager's token accessor.
//
// This is the only cross-goroutine shared mutable state in the client, so
// all access is serialized here behind a mutex.
type Cache struct {
	mu    sync.Mutex
	token string
	set   bool
}

func NewCache() *Cache {
	return &Cache{}
}

// Get returns the last-known access token, if one is held.
func (c *Cache) Get() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.set
}

// Set replaces the held token.
func (c *Cache) Set(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.set = true
}

// Clear drops the held token.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.set = false
}
