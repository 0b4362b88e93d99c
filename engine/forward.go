package engine

// PatchAttention answers: how strongly does one BEV query attend to each
// patch of the named camera?
//
// The result has one value per patch in row-major patch order
// (patchRow*patchCols + patchCol); patch i reads key index
// camera.StartIdx + i.
func (e *Engine) PatchAttention(queryIdx int, camName string, sel HeadSelection) ([]float32, error) {
	if err := sel.validate(e.t.Heads()); err != nil {
		return nil, err
	}
	if queryIdx < 0 || queryIdx >= e.t.Queries() {
		return nil, &QueryRangeError{Query: queryIdx, Queries: e.t.Queries()}
	}
	info, ok := e.l.Camera(camName)
	if !ok {
		return nil, &UnknownCameraError{CamName: camName}
	}

	out := make([]float32, info.NumPatches)
	for i := range out {
		out[i] = e.weight(sel, queryIdx, info.StartIdx+i)
	}
	return out, nil
}

// GlobalMaxPatchAttention returns the maximum forward-attention value
// across all cameras' patches for one query. Renderers use it to normalize
// overlay intensity consistently across cameras, so a query's attention is
// comparable whether it lands on one camera or spreads across several.
func (e *Engine) GlobalMaxPatchAttention(queryIdx int, sel HeadSelection) (float32, error) {
	if err := sel.validate(e.t.Heads()); err != nil {
		return 0, err
	}
	if queryIdx < 0 || queryIdx >= e.t.Queries() {
		return 0, &QueryRangeError{Query: queryIdx, Queries: e.t.Queries()}
	}

	first := true
	var best float32
	for _, info := range e.l.Cameras() {
		for i := 0; i < info.NumPatches; i++ {
			v := e.weight(sel, queryIdx, info.StartIdx+i)
			if first || v > best {
				best = v
				first = false
			}
		}
	}
	return best, nil
}
