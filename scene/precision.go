package scene

import (
	"fmt"
	"strings"
)

// Precision is the caller's precision preference for the attention tensor.
type Precision int

const (
	// PrecisionAuto lets the resolver pick: the manifest-declared default
	// if available, otherwise the smallest available encoding.
	PrecisionAuto Precision = iota

	// PrecisionFP32 requests the raw float32 payload.
	PrecisionFP32

	// PrecisionInt8 requests the symmetric per-head int8 variant.
	PrecisionInt8

	// PrecisionInt4 requests the packed per-head-per-query int4 variant.
	PrecisionInt4
)

// String returns the canonical lowercase name.
func (p Precision) String() string {
	switch p {
	case PrecisionAuto:
		return "auto"
	case PrecisionFP32:
		return "fp32"
	case PrecisionInt8:
		return "int8"
	case PrecisionInt4:
		return "int4"
	default:
		return fmt.Sprintf("precision(%d)", int(p))
	}
}

// ParsePrecision parses a precision preference case-insensitively.
// The empty string parses as auto.
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return PrecisionAuto, nil
	case "fp32", "float32":
		return PrecisionFP32, nil
	case "int8":
		return PrecisionInt8, nil
	case "int4":
		return PrecisionInt4, nil
	default:
		return PrecisionAuto, fmt.Errorf("scene: unknown precision %q", s)
	}
}

// variantKey returns the manifest key a literal interpretation of the
// precision demands, or "" for auto.
func (p Precision) variantKey() string {
	switch p {
	case PrecisionFP32:
		return KeyFP32
	case PrecisionInt8:
		return KeyInt8
	case PrecisionInt4:
		return KeyInt4
	default:
		return ""
	}
}
