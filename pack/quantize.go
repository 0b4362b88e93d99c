package pack

import (
	"encoding/binary"
	"math"

	"github.com/whesense/attnlens/tensor"
)

// Int8PerHead quantizes a tensor symmetrically per head. Each head gets one
// scale = maxAbs(head)/127; values are rounded to nearest and clamped to
// [-127, 127]. The payload is one byte per element in tensor order, the
// scales one float32 per head.
func Int8PerHead(t *tensor.Tensor) (payload []byte, scales []float32) {
	shape := t.Shape()
	data := t.Data()
	headLen := shape.Queries * shape.Keys

	payload = make([]byte, len(data))
	scales = make([]float32, shape.Heads)

	for h := 0; h < shape.Heads; h++ {
		slice := data[h*headLen : (h+1)*headLen]

		scale := maxAbs(slice) / 127
		if scale == 0 {
			scale = 1
		}
		scales[h] = scale

		base := h * headLen
		for i, v := range slice {
			payload[base+i] = byte(int8(clamp(math.Round(float64(v/scale)), -127, 127)))
		}
	}
	return payload, scales
}

// Int4PerHeadQuery quantizes a tensor symmetrically per (head, query) row
// and packs two values per byte: the even element index goes in the low
// nibble, the odd in the high nibble, two's complement in [-8, 7]. Each row
// gets one scale = maxAbs(row)/7; the scales are one float32 per (head,
// query) pair, indexed h*Q+q.
func Int4PerHeadQuery(t *tensor.Tensor) (payload []byte, scales []float32) {
	shape := t.Shape()
	data := t.Data()

	n := len(data)
	payload = make([]byte, (n+1)/2)
	scales = make([]float32, shape.Heads*shape.Queries)

	for h := 0; h < shape.Heads; h++ {
		for q := 0; q < shape.Queries; q++ {
			rowIdx := h*shape.Queries + q
			base := rowIdx * shape.Keys
			row := data[base : base+shape.Keys]

			scale := maxAbs(row) / 7
			if scale == 0 {
				scale = 1
			}
			scales[rowIdx] = scale

			for k, v := range row {
				i := base + k
				nib := uint8(int8(clamp(math.Round(float64(v/scale)), -8, 7))) & 0x0F
				if i%2 == 0 {
					payload[i/2] |= nib
				} else {
					payload[i/2] |= nib << 4
				}
			}
		}
	}
	return payload, scales
}

// ScaleBytes serializes a scale array as little-endian float32, the format
// decode expects for scale side-cars.
func ScaleBytes(scales []float32) []byte {
	out := make([]byte, 4*len(scales))
	for i, s := range scales {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(s))
	}
	return out
}

// FP32Bytes serializes the tensor's flat data as little-endian float32.
func FP32Bytes(t *tensor.Tensor) []byte {
	data := t.Data()
	out := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}

func maxAbs(vals []float32) float32 {
	var m float32
	for _, v := range vals {
		a := v
		if a < 0 {
			a = -a
		}
		if a > m {
			m = a
		}
	}
	return m
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
