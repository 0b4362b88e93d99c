// Package blobstore provides the storage abstraction for scene data: manifest
// JSON documents, attention payloads, quantization scale arrays, and camera
// images.
//
// Store is the interface for reading and writing blobs. Scene blobs are
// immutable once published; stores never mutate a blob in place.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, mmap reads, atomic-rename writes
//   - MemoryStore: in-memory, for tests and fixtures
//   - HTTPStore: read-only HTTP(S) origin, Range reads, no retries
//   - CachingStore: block-level LRU cache over any inner store
//   - s3.Store: Amazon S3 with range reads and streaming uploads
//   - minio.Store: MinIO / S3-compatible object storage
//
// # Custom Implementations
//
// Implement the Store interface to support other backends:
//
//	type Store interface {
//	    Open(ctx, name) (Blob, error)            // Open for reading
//	    Create(ctx, name) (WritableBlob, error)  // Create for streaming writes
//	    Put(ctx, name, data) error               // Atomic write
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// For remote backends, implement ReadRange for efficient partial reads:
//
//	type Blob interface {
//	    ReadAt(ctx, p, off) (int, error)
//	    ReadRange(ctx, off, length int64) (io.ReadCloser, error)
//	    Size() int64
//	    Close() error
//	}
package blobstore
