package marketdata

import (
	"sync"
	"time"

	"github.com/wonny/quantfolio/internal/contracts"
)

// memoryEntry holds one aligned matrix and its expiry
type memoryEntry struct {
	matrix  *contracts.PriceMatrix
	expires time.Time
}

// memoryCache is a thread-safe in-process TTL cache for price matrices
// Redis 비활성 시에도 같은 프로세스 내 반복 조회는 재다운로드하지 않음
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// get returns a cached matrix if present and not expired
func (c *memoryCache) get(key string) (*contracts.PriceMatrix, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expires) {
		return nil, false
	}
	return e.matrix, true
}

// put stores a matrix for ttl and evicts expired entries
func (c *memoryCache) put(key string, m *contracts.PriceMatrix, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = &memoryEntry{matrix: m, expires: now.Add(ttl)}
}
