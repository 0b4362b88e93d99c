package bev

import "testing"

func testGrid(t *testing.T) Grid {
	t.Helper()
	g, err := NewGrid(32, [4]float64{-40, 40, -40, 40})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

func TestQueryIndexRoundTrip(t *testing.T) {
	g := testGrid(t)
	for q := 0; q < g.NumQueries(); q++ {
		x, y := g.CellXY(q)
		if got := g.QueryIndex(x, y); got != q {
			t.Fatalf("round trip %d -> (%d,%d) -> %d", q, x, y, got)
		}
	}
}

func TestCellForWorld(t *testing.T) {
	g := testGrid(t)

	// Origin lands in the middle of the grid.
	x, y, ok := g.CellForWorld(0, 0)
	if !ok || x != 16 || y != 16 {
		t.Errorf("origin cell = (%d,%d,%v)", x, y, ok)
	}

	// Range minimum maps to cell 0.
	x, y, ok = g.CellForWorld(-40, -40)
	if !ok || x != 0 || y != 0 {
		t.Errorf("min corner cell = (%d,%d,%v)", x, y, ok)
	}

	// The max edge is exclusive.
	if _, _, ok := g.CellForWorld(40, 0); ok {
		t.Error("xmax edge should be out of range")
	}
	if _, _, ok := g.CellForWorld(-41, 0); ok {
		t.Error("below xmin should be out of range")
	}
}

func TestWorldForCellCenter(t *testing.T) {
	g := testGrid(t)

	wx, wy := g.WorldForCellCenter(0, 0)
	// Cell width is 2.5m, so cell (0,0) centers at -38.75.
	if wx != -38.75 || wy != -38.75 {
		t.Errorf("center = (%v, %v)", wx, wy)
	}

	// Centers map back to their own cell.
	for _, q := range []int{0, 17, 511, 1023} {
		x, y := g.CellXY(q)
		wx, wy := g.WorldForCellCenter(x, y)
		gx, gy, ok := g.CellForWorld(wx, wy)
		if !ok || gx != x || gy != y {
			t.Errorf("cell (%d,%d) center maps to (%d,%d,%v)", x, y, gx, gy, ok)
		}
	}
}

func TestNewGridRejects(t *testing.T) {
	if _, err := NewGrid(0, [4]float64{-40, 40, -40, 40}); err == nil {
		t.Error("zero size should fail")
	}
	if _, err := NewGrid(32, [4]float64{40, -40, -40, 40}); err == nil {
		t.Error("inverted x range should fail")
	}
	// Mins-then-maxes ordering collapses the x range to zero width.
	if _, err := NewGrid(32, [4]float64{-40, -40, 40, 40}); err == nil {
		t.Error("interleaved min/max ordering should fail")
	}
}

func TestMapNormalized(t *testing.T) {
	g, _ := NewGrid(2, [4]float64{-1, 1, -1, 1})
	m := NewMap(g)
	copy(m.Values, []float32{1, 3, 2, 5})

	n := m.Normalized()
	want := []float32{0, 0.5, 0.25, 1}
	for i, v := range n.Values {
		if v != want[i] {
			t.Errorf("normalized[%d] = %v, want %v", i, v, want[i])
		}
	}

	// Constant map normalizes to zeros rather than dividing by zero.
	flat := NewMap(g)
	for i := range flat.Values {
		flat.Values[i] = 7
	}
	for i, v := range flat.Normalized().Values {
		if v != 0 {
			t.Errorf("flat normalized[%d] = %v", i, v)
		}
	}
}

func TestBlend(t *testing.T) {
	g, _ := NewGrid(2, [4]float64{-1, 1, -1, 1})

	a := NewMap(g)
	copy(a.Values, []float32{0, 1, 0, 1})
	b := NewMap(g)
	copy(b.Values, []float32{1, 0, 1, 0})

	out, err := Blend([]*Map{a, b}, nil)
	if err != nil {
		t.Fatalf("Blend: %v", err)
	}
	for i, v := range out.Values {
		if v != 0.5 {
			t.Errorf("blend[%d] = %v, want 0.5", i, v)
		}
	}

	// Weighted blending.
	out, err = Blend([]*Map{a, b}, []float32{3, 1})
	if err != nil {
		t.Fatalf("Blend weighted: %v", err)
	}
	want := []float32{0.25, 0.75, 0.25, 0.75}
	for i, v := range out.Values {
		if v != want[i] {
			t.Errorf("weighted blend[%d] = %v, want %v", i, v, want[i])
		}
	}

	if _, err := Blend(nil, nil); err == nil {
		t.Error("empty blend should fail")
	}
	if _, err := Blend([]*Map{a}, []float32{1, 2}); err == nil {
		t.Error("weight count mismatch should fail")
	}
}
