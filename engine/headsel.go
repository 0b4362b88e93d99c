package engine

// HeadSelection chooses how the head dimension is reduced: the mean over
// all heads, or one selected head. The zero value is invalid; construct
// with MeanHeads or Head.
type HeadSelection struct {
	mean bool
	head int
	set  bool
}

// MeanHeads averages attention over all heads.
func MeanHeads() HeadSelection {
	return HeadSelection{mean: true, set: true}
}

// Head selects a single head index.
func Head(i int) HeadSelection {
	return HeadSelection{head: i, set: true}
}

// IsMean reports whether the selection averages over heads.
func (s HeadSelection) IsMean() bool { return s.mean }

// HeadIndex returns the selected head. Only meaningful when !IsMean().
func (s HeadSelection) HeadIndex() int { return s.head }

func (s HeadSelection) validate(numHeads int) error {
	if !s.set {
		return ErrHeadSelection
	}
	if !s.mean && (s.head < 0 || s.head >= numHeads) {
		return &HeadRangeError{Head: s.head, Heads: numHeads}
	}
	return nil
}
