package decode

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// maybeDecompress inflates data when name carries a compression suffix.
// Side-car payloads are headerless, so the suffix is the only signal.
func maybeDecompress(name string, data []byte) ([]byte, error) {
	switch {
	case strings.HasSuffix(name, ".zst"):
		r, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode: zstd reader for %s: %w", name, err)
		}
		defer r.Close()

		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("decode: zstd decompress %s: %w", name, err)
		}
		return out, nil

	case strings.HasSuffix(name, ".lz4"):
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("decode: lz4 decompress %s: %w", name, err)
		}
		return out, nil

	default:
		return data, nil
	}
}
