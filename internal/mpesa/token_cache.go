package mpesa

import (
	"context"
	"sync"
	"time"
)

// MemoryTokenCache keeps the current bearer token in process memory. It is
// the fallback when no shared cache is configured.
type MemoryTokenCache struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{}
}

func (c *MemoryTokenCache) Get(ctx context.Context) (string, bool) {
	c.mu.RLock()
	token, expiresAt := c.token, c.expiresAt
	c.mu.RUnlock()
	if token == "" || time.Now().After(expiresAt) {
		return "", false
	}
	return token, true
}

func (c *MemoryTokenCache) Set(ctx context.Context, token string, ttl time.Duration) {
	c.mu.Lock()
	c.token = token
	c.expiresAt = time.Now().Add(ttl)
	c.mu.Unlock()
}
