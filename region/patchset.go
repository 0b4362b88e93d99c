package region

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// PatchSet is a set of global key-token indices, backed by a roaring
// bitmap. Multiple region selections union into one set for a single
// inverse query.
type PatchSet struct {
	rb *roaring.Bitmap
}

// NewPatchSet creates an empty set.
func NewPatchSet() *PatchSet {
	return &PatchSet{rb: roaring.New()}
}

// FromIndices builds a set from explicit key indices.
func FromIndices(indices ...int) *PatchSet {
	s := NewPatchSet()
	for _, i := range indices {
		s.Add(i)
	}
	return s
}

// Add inserts a key index.
func (s *PatchSet) Add(keyIdx int) {
	s.rb.Add(uint32(keyIdx))
}

// Contains checks membership.
func (s *PatchSet) Contains(keyIdx int) bool {
	return s.rb.Contains(uint32(keyIdx))
}

// IsEmpty reports whether the set has no indices.
func (s *PatchSet) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// Len returns the number of selected indices.
func (s *PatchSet) Len() int {
	return int(s.rb.GetCardinality())
}

// Union merges another set into this one.
func (s *PatchSet) Union(other *PatchSet) {
	s.rb.Or(other.rb)
}

// Clone returns a deep copy.
func (s *PatchSet) Clone() *PatchSet {
	return &PatchSet{rb: s.rb.Clone()}
}

// Indices returns the selected key indices in ascending order.
func (s *PatchSet) Indices() []int {
	out := make([]int, 0, s.Len())
	it := s.rb.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// All iterates the selected key indices in ascending order.
func (s *PatchSet) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(int(it.Next())) {
				return
			}
		}
	}
}
