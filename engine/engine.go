package engine

import (
	"github.com/whesense/attnlens/bev"
	"github.com/whesense/attnlens/layout"
	"github.com/whesense/attnlens/tensor"
)

// Engine answers inverse and forward attention queries over one scene's
// decoded tensor, token layout, and BEV grid. It is immutable and safe for
// concurrent use.
type Engine struct {
	t    *tensor.Tensor
	l    *layout.Layout
	grid bev.Grid
}

// New validates that the tensor, layout, and grid agree: the layout's token
// count must equal the tensor's key dimension and the grid's cell count
// must equal the query dimension.
func New(t *tensor.Tensor, l *layout.Layout, grid bev.Grid) (*Engine, error) {
	if want := l.TokenCount(); t.Keys() != want {
		return nil, &LayoutMismatchError{What: "key token count", Expected: want, Actual: t.Keys()}
	}
	if want := grid.NumQueries(); t.Queries() != want {
		return nil, &LayoutMismatchError{What: "query count", Expected: want, Actual: t.Queries()}
	}
	return &Engine{t: t, l: l, grid: grid}, nil
}

// Tensor returns the engine's tensor.
func (e *Engine) Tensor() *tensor.Tensor { return e.t }

// Layout returns the engine's token layout.
func (e *Engine) Layout() *layout.Layout { return e.l }

// Grid returns the engine's BEV grid.
func (e *Engine) Grid() bev.Grid { return e.grid }

// weight returns the head-reduced attention weight for (query, key).
// The selection must be validated by the caller.
func (e *Engine) weight(sel HeadSelection, q, k int) float32 {
	if !sel.IsMean() {
		return e.t.At(sel.HeadIndex(), q, k)
	}
	var sum float32
	for h := 0; h < e.t.Heads(); h++ {
		sum += e.t.At(h, q, k)
	}
	return sum / float32(e.t.Heads())
}
