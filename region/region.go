// Package region maps user-selected pixel rectangles on camera images to
// sets of global key-token indices for inverse attention queries.
//
// Selections are made on the full-resolution image; the camera's
// RowScale/ColScale bring them down to the patch-aligned image before
// snapping to the patch grid. Patch sets are roaring bitmaps so multiple
// regions union cheaply.
package region

import (
	"fmt"

	"github.com/whesense/attnlens/layout"
)

// Rect is a pixel rectangle on one camera's full-resolution image.
// Both ranges are inclusive of min and exclusive of max.
type Rect struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Valid reports whether the rectangle has positive area.
func (r Rect) Valid() bool {
	return r.XMax > r.XMin && r.YMax > r.YMin
}

// Patches maps a rectangle on the camera's full-resolution image to the
// set of global key-token indices whose patches intersect it.
func Patches(info *layout.PatchInfo, r Rect) (*PatchSet, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("region: degenerate rectangle [%v,%v]x[%v,%v]", r.XMin, r.XMax, r.YMin, r.YMax)
	}

	// Down-scale to patch-aligned pixel space.
	xMin := r.XMin / info.ColScale
	xMax := r.XMax / info.ColScale
	yMin := r.YMin / info.RowScale
	yMax := r.YMax / info.RowScale

	colW := float64(info.ImgW) / float64(info.PatchCols)
	rowH := float64(info.ImgH) / float64(info.PatchRows)

	colMin := clamp(int(xMin/colW), 0, info.PatchCols-1)
	colMax := clamp(int((xMax-1e-9)/colW), 0, info.PatchCols-1)
	rowMin := clamp(int(yMin/rowH), 0, info.PatchRows-1)
	rowMax := clamp(int((yMax-1e-9)/rowH), 0, info.PatchRows-1)

	if xMax <= 0 || yMax <= 0 || xMin >= float64(info.ImgW) || yMin >= float64(info.ImgH) {
		return nil, fmt.Errorf("region: rectangle outside camera %s image", info.CamName)
	}

	set := NewPatchSet()
	for row := rowMin; row <= rowMax; row++ {
		for col := colMin; col <= colMax; col++ {
			set.Add(info.StartIdx + row*info.PatchCols + col)
		}
	}
	return set, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
