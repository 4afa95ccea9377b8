package usecase

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lmoretti/support-rag/internal/core/domain"
)

// ResponseCache memoizes final answers keyed by a normalized query
// fingerprint. Expired entries are evicted lazily on the next lookup; there
// is no background sweep. The cache is owned by the answer use case, never
// package-level state, and is safe for concurrent use.
type ResponseCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	answer    domain.Answer
	createdAt time.Time
}

func NewResponseCache(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ResponseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// KeyFor fingerprints the normalized query plus every retrieval parameter
// that changes the answer. Same logical query and parameters always produce
// the same key.
func (c *ResponseCache) KeyFor(query string, nTickets, nGuides int, language string) string {
	normalized := fmt.Sprintf("%s_%d_%d_%s",
		strings.ToLower(strings.TrimSpace(query)),
		nTickets,
		nGuides,
		strings.ToLower(strings.TrimSpace(language)),
	)
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Get returns a miss when the key is absent or the entry outlived its TTL;
// an expired entry is evicted before returning.
func (c *ResponseCache) Get(key string) (domain.Answer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return domain.Answer{}, false
	}
	if c.now().Sub(entry.createdAt) > c.ttl {
		delete(c.entries, key)
		return domain.Answer{}, false
	}
	return entry.answer, true
}

// Put overwrites any existing entry unconditionally and stamps the current
// time. Overwrites are idempotent, so no per-key locking is needed.
func (c *ResponseCache) Put(key string, answer domain.Answer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{answer: answer, createdAt: c.now()}
}

// Clear drops every entry and reports how many were removed.
func (c *ResponseCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]cacheEntry)
	return n
}

// Len is used by metrics and tests.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
