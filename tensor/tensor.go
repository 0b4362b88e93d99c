// Package tensor provides the flat float32 attention tensor shared by the
// decode and query packages.
//
// An attention tensor is logically a 4-D array indexed [batch, head, query, key]
// with the batch dimension fixed at 1. It is stored as a single flat buffer in
// row-major order, so element (h, q, k) lives at h*Q*K + q*K + k. There is
// deliberately no nested-array representation; all consumers use strided
// indexing over the flat buffer.
package tensor

import "fmt"

// Shape describes the logical dimensions of an attention tensor.
//
// The batch dimension must be 1. Multi-batch tensors were never produced by
// the exporter and are rejected everywhere in this library.
type Shape struct {
	Batch   int
	Heads   int
	Queries int
	Keys    int
}

// ShapeOf builds a Shape from a manifest-style [batch, heads, queries, keys]
// slice. It returns a *ShapeError if the slice does not have exactly four
// entries.
func ShapeOf(dims []int) (Shape, error) {
	if len(dims) != 4 {
		return Shape{}, &ShapeError{Reason: fmt.Sprintf("expected 4 dimensions [1,H,Q,K], got %d", len(dims))}
	}
	return Shape{Batch: dims[0], Heads: dims[1], Queries: dims[2], Keys: dims[3]}, nil
}

// Validate checks the shape invariants: batch == 1 and positive H, Q, K.
func (s Shape) Validate() error {
	if s.Batch != 1 {
		return &ShapeError{Reason: fmt.Sprintf("batch dimension must be 1, got %d", s.Batch)}
	}
	if s.Heads <= 0 || s.Queries <= 0 || s.Keys <= 0 {
		return &ShapeError{Reason: fmt.Sprintf("dimensions must be positive, got [1,%d,%d,%d]", s.Heads, s.Queries, s.Keys)}
	}
	return nil
}

// NumElements returns H*Q*K, the length of the flat buffer.
func (s Shape) NumElements() int {
	return s.Heads * s.Queries * s.Keys
}

// String renders the shape in manifest order.
func (s Shape) String() string {
	return fmt.Sprintf("[%d,%d,%d,%d]", s.Batch, s.Heads, s.Queries, s.Keys)
}

// ShapeError reports an invalid shape or a flat buffer whose length does not
// match the shape.
type ShapeError struct {
	Reason string
}

func (e *ShapeError) Error() string {
	return "tensor: " + e.Reason
}

// Tensor is a decoded attention tensor: a flat float32 buffer plus its shape.
// It is immutable once constructed and safe for concurrent reads.
type Tensor struct {
	shape Shape
	data  []float32
}

// New wraps a flat buffer with the given shape. The buffer is retained, not
// copied; callers must not mutate it afterwards.
func New(shape Shape, data []float32) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if want := shape.NumElements(); len(data) != want {
		return nil, &ShapeError{Reason: fmt.Sprintf("flat length %d does not match shape %s (want %d)", len(data), shape, want)}
	}
	return &Tensor{shape: shape, data: data}, nil
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape { return t.shape }

// Heads returns H.
func (t *Tensor) Heads() int { return t.shape.Heads }

// Queries returns Q.
func (t *Tensor) Queries() int { return t.shape.Queries }

// Keys returns K.
func (t *Tensor) Keys() int { return t.shape.Keys }

// NumElements returns the flat buffer length H*Q*K.
func (t *Tensor) NumElements() int { return len(t.data) }

// Index returns the flat index of element (h, q, k). No bounds checks; the
// query engine validates head/query/key ranges before indexing.
func (t *Tensor) Index(h, q, k int) int {
	return h*t.shape.Queries*t.shape.Keys + q*t.shape.Keys + k
}

// At returns the attention weight for (head, query, key).
func (t *Tensor) At(h, q, k int) float32 {
	return t.data[t.Index(h, q, k)]
}

// Data returns the flat backing buffer. Callers must treat it as read-only.
func (t *Tensor) Data() []float32 { return t.data }

// Row returns the contiguous K-length slice of weights for (head, query).
// The slice aliases the tensor's buffer and must be treated as read-only.
func (t *Tensor) Row(h, q int) []float32 {
	off := t.Index(h, q, 0)
	return t.data[off : off+t.shape.Keys]
}

// MemoryBytes returns the size of the flat buffer in bytes.
func (t *Tensor) MemoryBytes() int64 {
	return int64(len(t.data)) * 4
}
