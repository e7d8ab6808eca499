// Package cache holds the marketplace access-token caches. Tokens are
// expensive to mint and rate-limited, so they are cached with a TTL slightly
// below their real expiry.
package cache

import (
	"context"
	"sync"
	"time"
)

// TokenCache stores one short-lived access token per key.
type TokenCache interface {
	// Get returns the cached token, or "" when absent or expired
	Get(ctx context.Context, key string) (string, error)

	// Set stores a token with the given time to live
	Set(ctx context.Context, key, token string, ttl time.Duration) error

	// Delete removes a token, forcing the next caller to mint a new one
	Delete(ctx context.Context, key string) error
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryTokenCache is an in-process TokenCache for single-instance
// deployments and tests.
type MemoryTokenCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryTokenCache creates an empty in-memory token cache
func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the cached token, or "" when absent or expired
func (c *MemoryTokenCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expiresAt) {
		return "", nil
	}
	return entry.token, nil
}

// Set stores a token with the given time to live
func (c *MemoryTokenCache) Set(_ context.Context, key, token string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{
		token:     token,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Delete removes a token
func (c *MemoryTokenCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

var _ TokenCache = (*MemoryTokenCache)(nil)
