package cache

import (
	"context"
	"testing"

	"github.com/whesense/attnlens/resource"
	"github.com/whesense/attnlens/tensor"
)

func blobKey(path string, blk uint64) CacheKey {
	return CacheKey{Kind: CacheKindBlob, Path: path, Offset: blk}
}

func TestLRUBlockCacheBasic(t *testing.T) {
	c := NewLRUBlockCache(64, nil)
	ctx := context.Background()

	if _, ok := c.Get(ctx, blobKey("a", 0)); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	c.Set(ctx, blobKey("a", 0), []byte("hello"))
	got, ok := c.Get(ctx, blobKey("a", 0))
	if !ok || string(got) != "hello" {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = %d hits %d misses, want 1/1", hits, misses)
	}
}

func TestLRUBlockCacheEviction(t *testing.T) {
	c := NewLRUBlockCache(10, nil)
	ctx := context.Background()

	c.Set(ctx, blobKey("a", 0), make([]byte, 4))
	c.Set(ctx, blobKey("a", 1), make([]byte, 4))
	// Touch block 0 so block 1 is the eviction candidate.
	c.Get(ctx, blobKey("a", 0))

	c.Set(ctx, blobKey("a", 2), make([]byte, 4))

	if _, ok := c.Get(ctx, blobKey("a", 1)); ok {
		t.Error("block 1 should have been evicted")
	}
	if _, ok := c.Get(ctx, blobKey("a", 0)); !ok {
		t.Error("block 0 should still be cached")
	}
	if c.Size() > 10 {
		t.Errorf("size %d exceeds capacity", c.Size())
	}
}

func TestLRUBlockCacheOversizedItem(t *testing.T) {
	c := NewLRUBlockCache(8, nil)
	ctx := context.Background()

	c.Set(ctx, blobKey("a", 0), make([]byte, 16))
	if _, ok := c.Get(ctx, blobKey("a", 0)); ok {
		t.Error("oversized item must not be cached")
	}
}

func TestLRUBlockCacheInvalidate(t *testing.T) {
	c := NewLRUBlockCache(100, nil)
	ctx := context.Background()

	c.Set(ctx, blobKey("scene1/attn.bin", 0), []byte{1})
	c.Set(ctx, blobKey("scene1/attn.bin", 1), []byte{2})
	c.Set(ctx, blobKey("scene2/attn.bin", 0), []byte{3})

	c.Invalidate(func(key CacheKey) bool {
		return key.Path == "scene1/attn.bin"
	})

	if _, ok := c.Get(ctx, blobKey("scene1/attn.bin", 0)); ok {
		t.Error("scene1 block 0 should be invalidated")
	}
	if _, ok := c.Get(ctx, blobKey("scene1/attn.bin", 1)); ok {
		t.Error("scene1 block 1 should be invalidated")
	}
	if _, ok := c.Get(ctx, blobKey("scene2/attn.bin", 0)); !ok {
		t.Error("scene2 block should survive")
	}
}

func TestLRUBlockCacheResourceController(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 8})
	c := NewLRUBlockCache(100, rc)
	ctx := context.Background()

	c.Set(ctx, blobKey("a", 0), make([]byte, 6))
	if rc.MemoryUsage() != 6 {
		t.Errorf("controller usage = %d, want 6", rc.MemoryUsage())
	}

	// Denied by the global budget even though local capacity remains.
	c.Set(ctx, blobKey("a", 1), make([]byte, 6))
	if _, ok := c.Get(ctx, blobKey("a", 1)); ok {
		t.Error("set should have been denied by the memory budget")
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if rc.MemoryUsage() != 0 {
		t.Errorf("controller usage after Close = %d, want 0", rc.MemoryUsage())
	}
}

func newTestTensor(t *testing.T, h, q, k int) *tensor.Tensor {
	t.Helper()
	shape := tensor.Shape{Batch: 1, Heads: h, Queries: q, Keys: k}
	tn, err := tensor.New(shape, make([]float32, shape.NumElements()))
	if err != nil {
		t.Fatalf("tensor.New: %v", err)
	}
	return tn
}

func TestTensorCache(t *testing.T) {
	// Each 1x1x4 tensor is 16 bytes; capacity fits two.
	c := NewTensorCache(32, nil)

	t1 := newTestTensor(t, 1, 1, 4)
	t2 := newTestTensor(t, 1, 1, 4)
	t3 := newTestTensor(t, 1, 1, 4)

	if !c.Set("s1", t1) || !c.Set("s2", t2) {
		t.Fatal("both tensors should cache")
	}

	if got, ok := c.Get("s1"); !ok || got != t1 {
		t.Fatal("s1 should be cached")
	}

	// s2 is now least recently used and should be evicted.
	c.Set("s3", t3)
	if _, ok := c.Get("s2"); ok {
		t.Error("s2 should have been evicted")
	}
	if _, ok := c.Get("s1"); !ok {
		t.Error("s1 should still be cached")
	}

	c.Invalidate("s1")
	if _, ok := c.Get("s1"); ok {
		t.Error("s1 should be invalidated")
	}

	c.Clear()
	if c.Size() != 0 {
		t.Errorf("size after Clear = %d", c.Size())
	}
}

func TestTensorCacheSetDeclined(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 16})
	c := NewTensorCache(64, rc)

	// Over the cache capacity outright.
	if c.Set("big", newTestTensor(t, 1, 2, 10)) {
		t.Error("oversized tensor must not be cached")
	}

	if !c.Set("a", newTestTensor(t, 1, 1, 4)) {
		t.Fatal("first tensor should cache")
	}
	// Local capacity remains but the global budget is full.
	if c.Set("b", newTestTensor(t, 1, 1, 4)) {
		t.Error("set should be declined by the memory budget")
	}
	if rc.MemoryUsage() != 16 {
		t.Errorf("controller usage = %d, want 16", rc.MemoryUsage())
	}

	// Re-setting a held key reports cached.
	if !c.Set("a", newTestTensor(t, 1, 1, 4)) {
		t.Error("existing key should report cached")
	}
}
