package decode

import (
	"encoding/binary"
	"math"

	"github.com/whesense/attnlens/scene"
	"github.com/whesense/attnlens/tensor"
)

// decodeFP32 reinterprets a raw little-endian float32 payload.
func decodeFP32(file string, shape tensor.Shape, payload []byte) ([]float32, error) {
	n := shape.NumElements()
	if int64(len(payload)) != int64(n)*4 {
		return nil, &SizeError{File: file, Expected: int64(n) * 4, Actual: int64(len(payload))}
	}

	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:]))
	}
	return out, nil
}

// decodeInt8PerHead dequantizes a symmetric per-head int8 payload:
// value = q * scale[head]. The scale array holds one float32 per head.
func decodeInt8PerHead(v *scene.Variant, shape tensor.Shape, payload, scales []byte) ([]float32, error) {
	n := shape.NumElements()
	if int64(len(payload)) != int64(n) {
		return nil, &SizeError{File: v.File, Expected: int64(n), Actual: int64(len(payload))}
	}
	headScales, err := parseScales(v.ScaleFile, scales, shape.Heads)
	if err != nil {
		return nil, err
	}

	out := make([]float32, n)
	perHead := shape.Queries * shape.Keys
	for h := 0; h < shape.Heads; h++ {
		base := h * perHead
		scale := headScales[h]
		slice := payload[base : base+perHead]
		for i, q := range slice {
			out[base+i] = float32(int8(q)) * scale
		}
	}
	return out, nil
}

// decodeInt4PerHeadQuery dequantizes a packed per-(head,query) int4
// payload. Two signed nibbles per byte: the low nibble holds the even flat
// index, the high nibble the odd one. Each nibble is two's-complement in
// [-8,7]; the scale index for flat index i is head(i)*Q + query(i).
func decodeInt4PerHeadQuery(v *scene.Variant, shape tensor.Shape, payload, scales []byte) ([]float32, error) {
	n := shape.NumElements()
	packedLen := int64(n+1) / 2
	if int64(len(payload)) != packedLen {
		return nil, &SizeError{File: v.File, Expected: packedLen, Actual: int64(len(payload))}
	}
	qScales, err := parseScales(v.ScaleFile, scales, shape.Heads*shape.Queries)
	if err != nil {
		return nil, err
	}

	out := make([]float32, n)
	k := shape.Keys

	// Single linear pass; the scale index advances every K elements, so it
	// is tracked incrementally instead of dividing per element.
	scaleIdx := 0
	rem := k
	for i := 0; i < n; i++ {
		b := payload[i>>1]
		var nib int32
		if i&1 == 0 {
			nib = int32(b & 0x0F)
		} else {
			nib = int32(b >> 4)
		}
		if nib >= 8 {
			nib -= 16
		}
		out[i] = float32(nib) * qScales[scaleIdx]

		rem--
		if rem == 0 {
			rem = k
			scaleIdx++
		}
	}
	return out, nil
}

// parseScales validates and parses a float32 scale array of exactly count
// elements.
func parseScales(file string, data []byte, count int) ([]float32, error) {
	if int64(len(data)) != int64(count)*4 {
		return nil, &SizeError{File: file, Expected: int64(count) * 4, Actual: int64(len(data))}
	}
	out := make([]float32, count)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}
