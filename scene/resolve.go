package scene

import (
	"errors"
	"fmt"
)

// ErrPrecisionUnavailable is the sentinel satisfied by every
// *PrecisionError via errors.Is.
var ErrPrecisionUnavailable = errors.New("requested precision unavailable")

// ErrNoVariants is returned when a manifest carries neither an
// attn_variants map nor a legacy attn_weights_file.
var ErrNoVariants = errors.New("scene: manifest has no attention variants")

// PrecisionError reports an explicitly requested precision that the
// manifest does not provide. Explicit requests are never downgraded.
type PrecisionError struct {
	Requested Precision
}

func (e *PrecisionError) Error() string {
	return fmt.Sprintf("scene: %s: precision %s not present in manifest", ErrPrecisionUnavailable, e.Requested)
}

func (e *PrecisionError) Unwrap() error { return ErrPrecisionUnavailable }

// Resolution is the outcome of variant resolution.
type Resolution struct {
	// Key is the resolved canonical variant key.
	Key string

	// Variant is the descriptor to decode.
	Variant *Variant

	// FallbackUsed reports that the resolved variant differs from what a
	// literal reading of the request demanded: the legacy single-file
	// path was taken, or an auto request's manifest-declared default was
	// absent and another variant was chosen.
	FallbackUsed bool

	// Requested echoes the caller's preference.
	Requested Precision
}

// autoOrder is the auto-resolution priority among present variants:
// smallest encoding first.
var autoOrder = []string{KeyInt4, KeyInt8, KeyFP32}

// ResolveVariant picks the encoded variant to load for the requested
// precision.
//
// Explicit int8/int4 (and fp32, when no legacy file can stand in) requests
// are honored or rejected with a *PrecisionError, never silently
// substituted. Auto prefers the manifest-declared default when present and
// available, then int4 > int8 > fp32 among whatever the manifest carries.
// Manifests without an attn_variants map fall back to the legacy
// attn_weights_file as an fp32 reference.
func ResolveVariant(m *Manifest, req Precision) (*Resolution, error) {
	switch req {
	case PrecisionAuto, PrecisionFP32, PrecisionInt8, PrecisionInt4:
	default:
		return nil, fmt.Errorf("scene: invalid precision %d", int(req))
	}

	if len(m.AttnVariants) == 0 {
		return resolveLegacy(m, req)
	}

	if key := req.variantKey(); key != "" {
		v, ok := m.AttnVariants[key]
		if !ok {
			if req == PrecisionFP32 && m.AttnWeightsFile != "" {
				// A legacy file is still a literal fp32 payload.
				return &Resolution{
					Key:          KeyFP32,
					Variant:      legacyVariant(m),
					FallbackUsed: true,
					Requested:    req,
				}, nil
			}
			return nil, &PrecisionError{Requested: req}
		}
		return &Resolution{Key: key, Variant: v, Requested: req}, nil
	}

	// Auto: manifest-declared default first.
	if def := m.Metadata.AttnPrecisionDefault; def != "" {
		if v, ok := m.AttnVariants[def]; ok {
			return &Resolution{Key: def, Variant: v, Requested: req}, nil
		}
		// Declared default absent: fall through, but flag the substitution.
		for _, key := range autoOrder {
			if v, ok := m.AttnVariants[key]; ok {
				return &Resolution{Key: key, Variant: v, FallbackUsed: true, Requested: req}, nil
			}
		}
		return nil, ErrNoVariants
	}

	for _, key := range autoOrder {
		if v, ok := m.AttnVariants[key]; ok {
			return &Resolution{Key: key, Variant: v, Requested: req}, nil
		}
	}
	return nil, ErrNoVariants
}

func resolveLegacy(m *Manifest, req Precision) (*Resolution, error) {
	if m.AttnWeightsFile == "" {
		if key := req.variantKey(); key != "" && key != KeyFP32 {
			return nil, &PrecisionError{Requested: req}
		}
		return nil, ErrNoVariants
	}

	switch req {
	case PrecisionInt8, PrecisionInt4:
		// Explicit quantized request cannot be served by a legacy
		// fp32-only manifest.
		return nil, &PrecisionError{Requested: req}
	}

	return &Resolution{
		Key:          KeyFP32,
		Variant:      legacyVariant(m),
		FallbackUsed: req == PrecisionAuto,
		Requested:    req,
	}, nil
}

func legacyVariant(m *Manifest) *Variant {
	return &Variant{
		Key:   KeyFP32,
		DType: "float32",
		File:  m.AttnWeightsFile,
	}
}
