package embedding

import (
	"container/list"
	"sync"
)

// VectorCache is an LRU cache of embeddings keyed by input text.
// A cache with capacity <= 0 stores nothing.
type VectorCache struct {
	capacity int
	entries  map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	text   string
	vector []float32
}

// NewVectorCache creates a cache holding at most capacity vectors.
func NewVectorCache(capacity int) *VectorCache {
	return &VectorCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns a copy of the cached vector for text if present.
func (c *VectorCache) Get(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[text]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return cloneVector(elem.Value.(*cacheEntry).vector), true
}

// Set stores vector for text, evicting the least recently used entry when full.
func (c *VectorCache) Set(text string, vector []float32) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[text]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).vector = cloneVector(vector)
		return
	}

	elem := c.lru.PushFront(&cacheEntry{text: text, vector: cloneVector(vector)})
	c.entries[text] = elem

	if c.lru.Len() > c.capacity {
		if oldest := c.lru.Back(); oldest != nil {
			c.lru.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).text)
		}
	}
}

// Len returns the number of cached vectors.
func (c *VectorCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// cloneVector keeps callers from mutating cached data.
func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
