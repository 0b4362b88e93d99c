package imagemeta

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
)

func encode(t *testing.T, enc func(*bytes.Buffer, image.Image) error, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := enc(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestSize(t *testing.T) {
	cases := []struct {
		name string
		enc  func(*bytes.Buffer, image.Image) error
	}{
		{"png", func(b *bytes.Buffer, i image.Image) error { return png.Encode(b, i) }},
		{"jpeg", func(b *bytes.Buffer, i image.Image) error { return jpeg.Encode(b, i, nil) }},
		{"bmp", func(b *bytes.Buffer, i image.Image) error { return bmp.Encode(b, i) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := encode(t, tc.enc, 1600, 900)
			w, h, err := Size(data)
			if err != nil {
				t.Fatalf("Size: %v", err)
			}
			if w != 1600 || h != 900 {
				t.Fatalf("Size = %dx%d, want 1600x900", w, h)
			}
		})
	}
}

func TestSizeGarbage(t *testing.T) {
	if _, _, err := Size([]byte("not an image")); err == nil {
		t.Fatal("expected error for junk input")
	}
}
