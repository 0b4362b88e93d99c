package mmap

import (
	"io"
	"os"
	"sync/atomic"
)

// Mapping is a read-only memory-mapped file. It owns the mapped bytes and
// unmaps them on Close.
type Mapping struct {
	buf    []byte
	size   int
	closed atomic.Bool

	munmap func([]byte) error
}

// Open maps the file at path read-only. An empty file yields a valid
// zero-length mapping.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := fi.Size()
	if size < 0 {
		return nil, ErrInvalidSize
	}
	if size == 0 {
		return &Mapping{}, nil
	}

	buf, munmap, err := osMap(f, int(size))
	if err != nil {
		return nil, err
	}
	return &Mapping{buf: buf, size: int(size), munmap: munmap}, nil
}

// Close unmaps the file. Safe to call more than once; the mapped bytes must
// not be touched afterwards.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	if m.munmap != nil && m.buf != nil {
		return m.munmap(m.buf)
	}
	return nil
}

// Bytes returns the mapped contents, or nil once closed. The slice aliases
// the mapping and is only valid until Close.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.buf
}

// Size returns the mapped length in bytes.
func (m *Mapping) Size() int { return m.size }

// Advise hints the kernel about the expected access pattern.
func (m *Mapping) Advise(pattern AccessPattern) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if m.buf == nil {
		return nil
	}
	return osAdvise(m.buf, pattern)
}

// ReadAt implements io.ReaderAt over the mapped bytes.
func (m *Mapping) ReadAt(p []byte, off int64) (int, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
