package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations must return an error that satisfies
// `errors.Is(err, ErrNotFound)` when the named blob is absent.
var ErrNotFound = errors.New("blob not found")

// ErrReadOnly is returned by mutating operations on read-only stores
// (e.g. the HTTP store, which only serves published scene data).
var ErrReadOnly = errors.New("store is read-only")

// Store is an abstraction for accessing scene side-car files: manifests,
// attention payloads, scale arrays, and camera images.
// Implementations must be safe for concurrent use.
type Store interface {
	// Open opens an existing blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Create creates a new blob for streaming writes.
	Create(ctx context.Context, name string) (WritableBlob, error)

	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob.
	Delete(ctx context.Context, name string) error

	// List returns all blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to an immutable blob.
type Blob interface {
	// ReadAt reads len(p) bytes starting at offset off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// ReadRange returns a reader over [off, off+length), clamped to the
	// blob size.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)

	// Size returns the size of the blob in bytes.
	Size() int64

	// Close releases the handle.
	Close() error
}

// WritableBlob is a streaming write handle. The write is finalized by Close.
type WritableBlob interface {
	io.Writer
	io.Closer

	// Sync flushes buffered data to stable storage where that is meaningful.
	Sync() error
}

// TransportError reports an HTTP-level failure while fetching a blob.
// It carries the offending URL and status so callers can surface them
// without re-issuing the request. Transport failures are never retried
// inside this library.
type TransportError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("blobstore: unexpected status %s fetching %s", e.Status, e.URL)
}

// ReadAll opens the named blob and reads it fully into memory.
// It is the standard fetch path for manifests and attention side-cars,
// which are consumed whole.
func ReadAll(ctx context.Context, store Store, name string) ([]byte, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = b.Close() }()

	size := b.Size()
	if size == 0 {
		return nil, nil
	}

	buf := make([]byte, size)
	n, err := b.ReadAt(ctx, buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if int64(n) != size {
		return nil, fmt.Errorf("blobstore: short read of %q: got %d of %d bytes", name, n, size)
	}
	return buf, nil
}

// NopReadCloser wraps an io.Reader into an io.ReadCloser with a no-op Close.
func NopReadCloser(r io.Reader) io.ReadCloser {
	return io.NopCloser(r)
}
