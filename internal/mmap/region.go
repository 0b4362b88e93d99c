package mmap

// Region is a bounded view into a Mapping, e.g. one payload inside a
// concatenated side-car. The parent owns the memory.
type Region struct {
	parent *Mapping
	off    int
	size   int
}

// Region returns a view over [offset, offset+size).
func (m *Mapping) Region(offset, size int) (*Region, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if offset < 0 || size < 0 || offset+size > m.size {
		return nil, ErrOutOfBounds
	}
	return &Region{parent: m, off: offset, size: size}, nil
}

// Bytes returns the region's slice of the mapping, or nil once the parent
// is closed.
func (r *Region) Bytes() []byte {
	if r.parent.closed.Load() {
		return nil
	}
	return r.parent.buf[r.off : r.off+r.size]
}

// Advise hints the kernel about the expected access pattern for this
// region only.
func (r *Region) Advise(pattern AccessPattern) error {
	if r.parent.closed.Load() {
		return ErrClosed
	}
	return osAdvise(r.parent.buf[r.off:r.off+r.size], pattern)
}
