// Package layout computes the token layout: the mapping from camera names
// to contiguous ranges of key-token indices in the flattened attention
// tensor.
//
// The layout is a fixed contract with the exporter: cameras are walked in
// ascending lexicographic name order (case-sensitive byte order), each
// contributing an optional CLS token followed by its patch tokens. Display
// order for the UI is a separate, unrelated concern and must never feed
// this index math.
package layout

import (
	"fmt"
	"sort"
)

// Camera describes one camera's pixel dimensions. InputW/InputH are the
// patch-aligned network-input dimensions; OrigW/OrigH are the
// full-resolution capture dimensions used for region selection.
type Camera struct {
	Name   string
	InputW int
	InputH int
	OrigW  int
	OrigH  int
}

// PatchInfo is the token range and patch geometry for one camera.
type PatchInfo struct {
	// CamName is the camera's name.
	CamName string

	// CamIndex is the camera's position in layout (sorted) order.
	CamIndex int

	// StartIdx is the first global key-token index of this camera's
	// patches, after its CLS token when the layout has CLS tokens.
	StartIdx int

	// NumPatches is PatchRows * PatchCols.
	NumPatches int

	// PatchRows and PatchCols are the patch grid dimensions.
	PatchRows int
	PatchCols int

	// ImgH and ImgW are the patch-aligned image dimensions.
	ImgH int
	ImgW int

	// RowScale and ColScale map full-resolution pixel coordinates down to
	// the patch-aligned image: original dimension over input dimension.
	RowScale float64
	ColScale float64
}

// Contains reports whether the global key index falls inside this camera's
// patch range.
func (p *PatchInfo) Contains(keyIdx int) bool {
	return keyIdx >= p.StartIdx && keyIdx < p.StartIdx+p.NumPatches
}

// Layout is the immutable per-scene token layout.
type Layout struct {
	cameras   []*PatchInfo
	byName    map[string]*PatchInfo
	patchSize int
	hasCLS    bool
	tokens    int
}

// Build computes the token layout for a set of cameras.
//
// Cameras are sorted by name; the cursor walks them in that order, skipping
// one CLS token per camera before its patches when hasCLS is set. Patch
// grids are floor(dim / patchSize) per axis.
func Build(cameras []Camera, patchSize int, hasCLS bool) (*Layout, error) {
	if len(cameras) == 0 {
		return nil, fmt.Errorf("layout: no cameras")
	}
	if patchSize <= 0 {
		return nil, fmt.Errorf("layout: patch size must be positive, got %d", patchSize)
	}

	sorted := make([]Camera, len(cameras))
	copy(sorted, cameras)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	l := &Layout{
		cameras:   make([]*PatchInfo, 0, len(sorted)),
		byName:    make(map[string]*PatchInfo, len(sorted)),
		patchSize: patchSize,
		hasCLS:    hasCLS,
	}

	cursor := 0
	for i, cam := range sorted {
		if _, dup := l.byName[cam.Name]; dup {
			return nil, fmt.Errorf("layout: duplicate camera %q", cam.Name)
		}
		if cam.InputW < patchSize || cam.InputH < patchSize {
			return nil, fmt.Errorf("layout: camera %q image %dx%d smaller than patch size %d", cam.Name, cam.InputW, cam.InputH, patchSize)
		}

		if hasCLS {
			cursor++ // skip the camera's CLS token
		}

		rows := cam.InputH / patchSize
		cols := cam.InputW / patchSize

		info := &PatchInfo{
			CamName:    cam.Name,
			CamIndex:   i,
			StartIdx:   cursor,
			NumPatches: rows * cols,
			PatchRows:  rows,
			PatchCols:  cols,
			ImgH:       cam.InputH,
			ImgW:       cam.InputW,
			RowScale:   scaleRatio(cam.OrigH, cam.InputH),
			ColScale:   scaleRatio(cam.OrigW, cam.InputW),
		}
		cursor += info.NumPatches

		l.cameras = append(l.cameras, info)
		l.byName[cam.Name] = info
	}
	l.tokens = cursor

	return l, nil
}

func scaleRatio(orig, input int) float64 {
	if orig <= 0 {
		// No full-resolution dimensions known; selections are already in
		// input pixel space.
		return 1
	}
	return float64(orig) / float64(input)
}

// TokenCount returns the total key-token count the layout implies:
// sum(NumPatches) plus one CLS token per camera when present. It must equal
// the tensor's key dimension.
func (l *Layout) TokenCount() int { return l.tokens }

// NumCameras returns the camera count.
func (l *Layout) NumCameras() int { return len(l.cameras) }

// HasCLS reports whether each camera contributes a CLS token.
func (l *Layout) HasCLS() bool { return l.hasCLS }

// PatchSize returns the patch edge length in pixels.
func (l *Layout) PatchSize() int { return l.patchSize }

// Camera returns the PatchInfo for the named camera.
func (l *Layout) Camera(name string) (*PatchInfo, bool) {
	info, ok := l.byName[name]
	return info, ok
}

// CameraAt returns the PatchInfo at the given layout index.
func (l *Layout) CameraAt(i int) *PatchInfo { return l.cameras[i] }

// Cameras returns all PatchInfo entries in layout order. The slice must be
// treated as read-only.
func (l *Layout) Cameras() []*PatchInfo { return l.cameras }

// CameraForKey returns the camera whose patch range contains the global key
// index, or nil when the index is a CLS token or out of range.
func (l *Layout) CameraForKey(keyIdx int) *PatchInfo {
	// Cameras are few (typically 6); linear scan beats a search tree.
	for _, info := range l.cameras {
		if info.Contains(keyIdx) {
			return info
		}
	}
	return nil
}
