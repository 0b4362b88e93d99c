// Package bev models the bird's-eye-view query grid: the gridSize x
// gridSize arrangement of BEV cells the attention tensor's query dimension
// indexes, plus the fixed linear mapping between world meters and cells.
package bev

import "fmt"

// Grid describes the BEV query grid. The zero value is not valid; use
// NewGrid.
type Grid struct {
	// Size is the cell count per axis; the tensor's query dimension is
	// Size*Size.
	Size int

	// Range is the world extent in meters: [xmin, xmax, ymin, ymax].
	Range [4]float64
}

// NewGrid validates and constructs a Grid.
func NewGrid(size int, worldRange [4]float64) (Grid, error) {
	if size <= 0 {
		return Grid{}, fmt.Errorf("bev: grid size must be positive, got %d", size)
	}
	if worldRange[1] <= worldRange[0] || worldRange[3] <= worldRange[2] {
		return Grid{}, fmt.Errorf("bev: degenerate world range %v", worldRange)
	}
	return Grid{Size: size, Range: worldRange}, nil
}

// NumQueries returns Size*Size.
func (g Grid) NumQueries() int { return g.Size * g.Size }

// QueryIndex returns the flat query index for cell (x, y): q = y*Size + x.
func (g Grid) QueryIndex(x, y int) int { return y*g.Size + x }

// CellXY returns the (x, y) cell coordinates for a flat query index.
func (g Grid) CellXY(q int) (x, y int) { return q % g.Size, q / g.Size }

// CellForWorld maps world meters to a cell. ok is false when the point
// falls outside the grid's range.
func (g Grid) CellForWorld(wx, wy float64) (x, y int, ok bool) {
	fx := (wx - g.Range[0]) / (g.Range[1] - g.Range[0])
	fy := (wy - g.Range[2]) / (g.Range[3] - g.Range[2])
	if fx < 0 || fx >= 1 || fy < 0 || fy >= 1 {
		return 0, 0, false
	}
	return int(fx * float64(g.Size)), int(fy * float64(g.Size)), true
}

// WorldForCellCenter returns the world-meter center of cell (x, y).
func (g Grid) WorldForCellCenter(x, y int) (wx, wy float64) {
	cw := (g.Range[1] - g.Range[0]) / float64(g.Size)
	ch := (g.Range[3] - g.Range[2]) / float64(g.Size)
	return g.Range[0] + (float64(x)+0.5)*cw, g.Range[2] + (float64(y)+0.5)*ch
}
