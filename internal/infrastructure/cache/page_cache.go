package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"PocketTagger/internal/ports"
)

// InMemoryPageCache keeps page bodies for the lifetime of the process.
type InMemoryPageCache struct {
	mu    sync.RWMutex
	pages map[string][]byte
}

var _ ports.PageCache = (*InMemoryPageCache)(nil)

func NewInMemoryPageCache() *InMemoryPageCache {
	return &InMemoryPageCache{
		pages: make(map[string][]byte),
	}
}

func (c *InMemoryPageCache) Get(ctx context.Context, url string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	body, ok := c.pages[Key(url)]
	if !ok {
		return nil, false
	}

	result := make([]byte, len(body))
	copy(result, body)
	return result, true
}

func (c *InMemoryPageCache) Set(ctx context.Context, url string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]byte, len(body))
	copy(stored, body)
	c.pages[Key(url)] = stored
	return nil
}

// Key derives the cache key for a URL.
func Key(url string) string {
	hash := sha256.Sum256([]byte(strings.TrimSpace(url)))
	return hex.EncodeToString(hash[:])
}
