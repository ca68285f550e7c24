package oracle

import (
	"container/list"
	"context"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/agent-smit/passguard/internal/breach"
)

// cacheKey is a digest of the embedded text, so the cache never holds
// plaintext passwords.
type cacheKey [blake2b.Size256]byte

type cacheEntry struct {
	key    cacheKey
	vector []float32
}

// CachedEmbedder memoizes another embedder's vectors in a fixed-size LRU.
// Embeddings are deterministic, so entries never expire.
type CachedEmbedder struct {
	next     breach.Embedder
	capacity int

	mu    sync.Mutex
	items map[cacheKey]*list.Element
	order *list.List // front is most recently used

	hits, misses uint64
}

// NewCachedEmbedder wraps next with an LRU of the given capacity.
func NewCachedEmbedder(next breach.Embedder, capacity int) *CachedEmbedder {
	if capacity <= 0 {
		capacity = 1000
	}
	return &CachedEmbedder{
		next:     next,
		capacity: capacity,
		items:    make(map[cacheKey]*list.Element),
		order:    list.New(),
	}
}

func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(blake2b.Sum256([]byte(text)))

	if v, ok := c.get(key); ok {
		return v, nil
	}

	v, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.set(key, v)
	return clone(v), nil
}

func (c *CachedEmbedder) get(key cacheKey) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return clone(el.Value.(*cacheEntry).vector), true
}

func (c *CachedEmbedder) set(key cacheKey, v []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*cacheEntry).vector = clone(v)
		c.order.MoveToFront(el)
		return
	}

	for c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
	c.items[key] = c.order.PushFront(&cacheEntry{key: key, vector: clone(v)})
}

// Stats returns cache hits, misses and current size.
func (c *CachedEmbedder) Stats() (hits, misses uint64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, c.order.Len()
}

func clone(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
