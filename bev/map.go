package bev

import "fmt"

// Map is a per-query score grid: one float per BEV cell, row-major with
// q = y*Size + x. It is produced by inverse attention queries and consumed
// by overlay renderers.
type Map struct {
	Grid   Grid
	Values []float32
}

// NewMap allocates a zeroed map over the grid.
func NewMap(g Grid) *Map {
	return &Map{Grid: g, Values: make([]float32, g.NumQueries())}
}

// At returns the value at cell (x, y).
func (m *Map) At(x, y int) float32 {
	return m.Values[m.Grid.QueryIndex(x, y)]
}

// Set stores a value at cell (x, y).
func (m *Map) Set(x, y int, v float32) {
	m.Values[m.Grid.QueryIndex(x, y)] = v
}

// MinMax returns the minimum and maximum values.
func (m *Map) MinMax() (minV, maxV float32) {
	minV, maxV = m.Values[0], m.Values[0]
	for _, v := range m.Values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return minV, maxV
}

// Normalized returns a copy scaled to [0,1] by this map's own min/max.
// A constant map normalizes to all zeros. This per-map normalization is a
// display concern layered on the raw per-query values.
func (m *Map) Normalized() *Map {
	out := NewMap(m.Grid)
	minV, maxV := m.MinMax()
	span := maxV - minV
	if span == 0 {
		return out
	}
	for i, v := range m.Values {
		out.Values[i] = (v - minV) / span
	}
	return out
}

// Blend alpha-blends several maps per cell for display: each input is
// normalized by its own min/max, then averaged with the given weights.
// Weights may be nil for uniform blending. All maps must share a grid size.
func Blend(maps []*Map, weights []float32) (*Map, error) {
	if len(maps) == 0 {
		return nil, fmt.Errorf("bev: no maps to blend")
	}
	if weights != nil && len(weights) != len(maps) {
		return nil, fmt.Errorf("bev: %d weights for %d maps", len(weights), len(maps))
	}

	g := maps[0].Grid
	for _, m := range maps[1:] {
		if m.Grid.Size != g.Size {
			return nil, fmt.Errorf("bev: mismatched grid sizes %d and %d", g.Size, m.Grid.Size)
		}
	}

	var totalWeight float32
	if weights == nil {
		totalWeight = float32(len(maps))
	} else {
		for _, w := range weights {
			totalWeight += w
		}
		if totalWeight == 0 {
			return nil, fmt.Errorf("bev: blend weights sum to zero")
		}
	}

	out := NewMap(g)
	for mi, m := range maps {
		w := float32(1)
		if weights != nil {
			w = weights[mi]
		}
		norm := m.Normalized()
		for i, v := range norm.Values {
			out.Values[i] += v * w
		}
	}
	for i := range out.Values {
		out.Values[i] /= totalWeight
	}
	return out, nil
}
