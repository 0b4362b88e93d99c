package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/whesense/attnlens/internal/cache"
)

type mockCountingStore struct {
	readCount int
}

func (m *mockCountingStore) Open(ctx context.Context, name string) (Blob, error) {
	return &mockCountingBlob{store: m, size: 1024 * 1024}, nil
}
func (m *mockCountingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	return nil, nil
}
func (m *mockCountingStore) Put(ctx context.Context, name string, data []byte) error { return nil }
func (m *mockCountingStore) Delete(ctx context.Context, name string) error           { return nil }
func (m *mockCountingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return nil, nil
}

type mockCountingBlob struct {
	store *mockCountingStore
	size  int64
}

func (b *mockCountingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	b.store.readCount++
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}
func (b *mockCountingBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	return nil, nil
}
func (b *mockCountingBlob) Size() int64  { return b.size }
func (b *mockCountingBlob) Close() error { return nil }

func TestCachingStore_Coalescing(t *testing.T) {
	inner := &mockCountingStore{}
	cachingStore := NewCachingStore(inner, cache.NewLRUBlockCache(1024*1024, nil), 1024)

	ctx := context.Background()
	blob, _ := cachingStore.Open(ctx, "attn_fp32.bin")

	// A 10-block cold read should coalesce into one backend fetch.
	buf := make([]byte, 10*1024)
	if _, err := blob.ReadAt(ctx, buf, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}

	if inner.readCount != 1 {
		t.Fatalf("cold read issued %d backend reads, want 1", inner.readCount)
	}
}

func BenchmarkCachingStore_WarmReads(b *testing.B) {
	inner := &mockCountingStore{}
	cachingStore := NewCachingStore(inner, cache.NewLRUBlockCache(16*1024*1024, nil), 4096)

	ctx := context.Background()
	blob, _ := cachingStore.Open(ctx, "attn_fp32.bin")

	buf := make([]byte, 64*1024)
	if _, err := blob.ReadAt(ctx, buf, 0); err != nil {
		b.Fatalf("warm-up: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := blob.ReadAt(ctx, buf, 0); err != nil {
			b.Fatalf("ReadAt: %v", err)
		}
	}
	b.SetBytes(int64(len(buf)))
}
