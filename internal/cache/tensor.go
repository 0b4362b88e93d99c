package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/whesense/attnlens/resource"
	"github.com/whesense/attnlens/tensor"
)

// TensorCache is an LRU cache of fully decoded attention tensors, keyed by
// the resolved variant location (store URL + payload file + key). Decoded
// tensors dominate memory, so eviction is by total byte size rather than
// entry count.
type TensorCache struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[string]*list.Element
	evictList *list.List
	rc        *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

type tensorEntry struct {
	key string
	t   *tensor.Tensor
}

// NewTensorCache creates a tensor cache holding up to capacity bytes of
// decoded data. If rc is provided, it tracks memory against the global
// budget.
func NewTensorCache(capacity int64, rc *resource.Controller) *TensorCache {
	return &TensorCache{
		capacity:  capacity,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
		rc:        rc,
	}
}

// Get returns the cached tensor for key, if any.
func (c *TensorCache) Get(key string) (*tensor.Tensor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*tensorEntry).t, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set caches a decoded tensor and reports whether the cache now holds it.
// It declines tensors larger than the capacity, and entries the global
// budget has no room for. Tensors are immutable, so re-setting an existing
// key refreshes recency only.
func (c *TensorCache) Set(key string, t *tensor.Tensor) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		return true
	}

	itemSize := t.MemoryBytes()
	if itemSize > c.capacity {
		return false
	}

	for c.size+itemSize > c.capacity {
		ent := c.evictList.Back()
		if ent == nil {
			break
		}
		c.removeElement(ent)
	}

	if !c.rc.TryAcquireMemory(itemSize) {
		return false
	}

	element := c.evictList.PushFront(&tensorEntry{key: key, t: t})
	c.items[key] = element
	c.size += itemSize
	return true
}

// Invalidate removes the entry for key, if present.
func (c *TensorCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.removeElement(ent)
	}
}

// Clear removes all entries.
func (c *TensorCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.evictList.Len() > 0 {
		c.removeElement(c.evictList.Back())
	}
}

// Stats returns hit/miss counters.
func (c *TensorCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Size returns the current cached byte size.
func (c *TensorCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *TensorCache) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	ent := e.Value.(*tensorEntry)
	delete(c.items, ent.key)
	itemSize := ent.t.MemoryBytes()
	c.size -= itemSize
	c.rc.ReleaseMemory(itemSize)
}
