package engine

import (
	"github.com/whesense/attnlens/bev"
	"github.com/whesense/attnlens/region"
)

// Aggregation is the policy for combining attention from multiple selected
// key tokens into one score per query.
type Aggregation int

const (
	aggregationUnset Aggregation = iota

	// AggregationSum adds the per-key weights.
	AggregationSum

	// AggregationMax takes the per-key maximum.
	AggregationMax

	// AggregationMean averages over the selected key count. Head
	// reduction happens first and is independent of this count.
	AggregationMean
)

// String returns the policy's lowercase name.
func (a Aggregation) String() string {
	switch a {
	case AggregationSum:
		return "sum"
	case AggregationMax:
		return "max"
	case AggregationMean:
		return "mean"
	default:
		return "unknown"
	}
}

// InverseOptions configures an inverse query.
type InverseOptions struct {
	Heads       HeadSelection
	Aggregation Aggregation
}

// Inverse answers: which BEV queries attend to the selected image patches?
//
// For each query, the head-reduced weight to every selected key token is
// gathered and combined per the aggregation policy. Head reduction happens
// strictly before aggregation. The result is a row-major BEV map with
// q = y*gridSize + x.
func (e *Engine) Inverse(sel *region.PatchSet, o InverseOptions) (*bev.Map, error) {
	if err := o.Heads.validate(e.t.Heads()); err != nil {
		return nil, err
	}
	switch o.Aggregation {
	case AggregationSum, AggregationMax, AggregationMean:
	default:
		return nil, ErrAggregation
	}
	if sel == nil || sel.IsEmpty() {
		return nil, ErrEmptySelection
	}

	keys := sel.Indices()
	for _, k := range keys {
		if k < 0 || k >= e.t.Keys() {
			return nil, &KeyRangeError{Key: k, Keys: e.t.Keys()}
		}
	}

	out := bev.NewMap(e.grid)
	for q := 0; q < e.t.Queries(); q++ {
		out.Values[q] = e.combine(o, q, keys)
	}
	return out, nil
}

func (e *Engine) combine(o InverseOptions, q int, keys []int) float32 {
	switch o.Aggregation {
	case AggregationMax:
		best := e.weight(o.Heads, q, keys[0])
		for _, k := range keys[1:] {
			if v := e.weight(o.Heads, q, k); v > best {
				best = v
			}
		}
		return best
	default:
		// Sum and mean share the accumulation.
		var sum float32
		for _, k := range keys {
			sum += e.weight(o.Heads, q, k)
		}
		if o.Aggregation == AggregationMean {
			return sum / float32(len(keys))
		}
		return sum
	}
}
