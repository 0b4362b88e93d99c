// Package imagemeta probes encoded image dimensions without decoding
// pixels. Legacy scene manifests carry camera image files but no sizes, so
// the loader reads headers to recover patch-grid dimensions.
package imagemeta

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Size returns the pixel width and height of an encoded image.
func Size(data []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("imagemeta: probing image: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}
