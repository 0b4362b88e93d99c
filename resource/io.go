package resource

import (
	"context"
	"io"
)

// ioChunkBytes caps one limiter reservation so large transfers pace in
// small steps instead of holding the budget for whole seconds.
const ioChunkBytes = 64 << 10

// RateLimitedReader wraps an io.Reader with IO rate limiting. The decode
// fetch path streams side-car payloads through it so bulk downloads cannot
// starve interactive loads.
type RateLimitedReader struct {
	r   io.Reader
	rc  *Controller
	ctx context.Context
}

// NewRateLimitedReader creates a new RateLimitedReader.
func NewRateLimitedReader(ctx context.Context, r io.Reader, rc *Controller) *RateLimitedReader {
	return &RateLimitedReader{
		r:   r,
		rc:  rc,
		ctx: ctx,
	}
}

// Read reads at most one chunk, then charges the limiter for the bytes
// actually read. Charging after the read keeps the accounting exact; the
// wait paces whoever asks for the next chunk.
func (r *RateLimitedReader) Read(p []byte) (int, error) {
	if len(p) > ioChunkBytes {
		p = p[:ioChunkBytes]
	}
	n, err := r.r.Read(p)
	if n > 0 {
		if werr := r.rc.WaitIO(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}

// RateLimitedWriter wraps an io.Writer with IO rate limiting. Used by the
// scene packer when publishing payloads.
type RateLimitedWriter struct {
	w   io.Writer
	rc  *Controller
	ctx context.Context
}

// NewRateLimitedWriter creates a new RateLimitedWriter.
func NewRateLimitedWriter(ctx context.Context, w io.Writer, rc *Controller) *RateLimitedWriter {
	return &RateLimitedWriter{
		w:   w,
		rc:  rc,
		ctx: ctx,
	}
}

// Write writes p in chunks, waiting for the limiter before each one.
func (w *RateLimitedWriter) Write(p []byte) (int, error) {
	var written int
	for len(p) > 0 {
		c := len(p)
		if c > ioChunkBytes {
			c = ioChunkBytes
		}
		if err := w.rc.WaitIO(w.ctx, c); err != nil {
			return written, err
		}
		n, err := w.w.Write(p[:c])
		written += n
		if err != nil {
			return written, err
		}
		p = p[c:]
	}
	return written, nil
}
